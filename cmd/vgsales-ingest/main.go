// 数据导入工具：建表并把清洗后的销量 CSV 整表写入 PostgreSQL（_vg_sales）
package main

import (
	"os"

	"vgsales-dash/internal/config"
	"vgsales-dash/internal/logger"
)

func main() {
	config.LoadDotEnv()
	logger.Setup()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
