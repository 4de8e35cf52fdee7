package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingColumn：表头缺少必需列
var ErrMissingColumn = errors.New("dataset: missing required column")

// LoadStats：装载统计，用于日志与指标
type LoadStats struct {
	Rows        int `json:"rows"`
	Kept        int `json:"kept"`
	InvalidYear int `json:"invalid_year"`
	Malformed   int `json:"malformed"`
}

var requiredColumns = []string{"Name", "Platform", "Genre", "Year"}

var salesColumns = []RegionKey{NASales, EUSales, JPSales, OtherSales, GlobalSales}

// ParseCSV：按表头解析销量 CSV
// 背景：列位置不固定，按列名映射；多余列忽略，缺少销量列按 0 处理
// 约束：Year 为 "N/A"、空或非整数的行直接丢弃（不是错误）；格式损坏的行跳过并计数；底层读取错误直接返回
func ParseCSV(r io.Reader) ([]Record, LoadStats, error) {
	var st LoadStats
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, st, fmt.Errorf("dataset: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		idx[h] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, st, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var out []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, st, fmt.Errorf("dataset: read row %d: %w", st.Rows+1, err)
			}
			st.Rows++
			st.Malformed++
			continue
		}
		st.Rows++
		year, ok := parseYear(field(row, "Year"))
		if !ok {
			st.InvalidYear++
			continue
		}
		rec := Record{
			Name:     field(row, "Name"),
			Platform: field(row, "Platform"),
			Genre:    field(row, "Genre"),
			Year:     year,
		}
		for _, k := range salesColumns {
			v := Coerce(field(row, string(k)))
			switch k {
			case NASales:
				rec.NASales = v
			case EUSales:
				rec.EUSales = v
			case JPSales:
				rec.JPSales = v
			case OtherSales:
				rec.OtherSales = v
			case GlobalSales:
				rec.GlobalSales = v
			}
		}
		out = append(out, rec)
	}
	st.Kept = len(out)
	return out, st, nil
}

// LoadCSVFile：读取本地 CSV 文件为快照
func LoadCSVFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()
	recs, st, err := ParseCSV(f)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Records: recs, Source: "csv:" + path, LoadedAt: time.Now(), Stats: st}, nil
}

// Coerce：销量字段转非负实数；缺失、无法解析、NaN/Inf 与负数一律记为 0
func Coerce(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// parseYear：年份解析，允许 "2005" 与 "2005.0"
func parseYear(s string) (int, bool) {
	if s == "" || strings.EqualFold(s, "N/A") {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
