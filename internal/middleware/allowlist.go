package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// 文档注释：IP/CIDR 白名单
// 背景：/metrics 只对抓取方开放，默认仅本机；其他来源统一 403。
// 约束：支持 IPv4/IPv6 单 IP 与 CIDR；来源 IP 以 RemoteAddr 为准，配置 realIPHeader 时取该头首个有效 IP。
type Allowlist struct {
	l            *slog.Logger
	allowIPs     map[string]struct{}
	allowCIDRs   []*net.IPNet
	realIPHeader string
}

// NewAllowlist：entries 可混合单 IP 与 CIDR，无法解析的条目记录告警后忽略
func NewAllowlist(l *slog.Logger, entries []string, realIPHeader string) *Allowlist {
	a := &Allowlist{l: l, allowIPs: map[string]struct{}{}, realIPHeader: strings.TrimSpace(realIPHeader)}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			if _, n, err := net.ParseCIDR(e); err == nil {
				a.allowCIDRs = append(a.allowCIDRs, n)
				continue
			}
		} else if ip := net.ParseIP(e); ip != nil {
			a.allowIPs[ip.String()] = struct{}{}
			continue
		}
		l.Warn("allowlist_entry_invalid", "entry", e)
	}
	return a
}

func (a *Allowlist) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := a.extractIP(r)
		if ip == nil || !a.Allowed(ip) {
			a.l.Debug("allowlist_block", "remote", r.RemoteAddr, "path", r.URL.Path)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allowed：判断 IP 是否在允许集合
func (a *Allowlist) Allowed(ip net.IP) bool {
	if _, ok := a.allowIPs[ip.String()]; ok {
		return true
	}
	for _, n := range a.allowCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func (a *Allowlist) extractIP(r *http.Request) net.IP {
	if a.realIPHeader != "" {
		if raw := r.Header.Get(a.realIPHeader); raw != "" {
			first := strings.TrimSpace(strings.Split(raw, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip
			}
		}
	}
	return ClientIP(r)
}

// ClientIP：RemoteAddr 中的 IP（去掉端口）
func ClientIP(r *http.Request) net.IP {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return net.ParseIP(host)
}
