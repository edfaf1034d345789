// Package mail 按 SMTP 配置发送选股结果 HTML 邮件。
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"stockLeader/internal/config"
	"stockLeader/internal/report"
	"stockLeader/internal/trace"
)

const (
	smtpTimeout     = 15 * time.Second
	defaultSMTPPort = 587
	implicitTLSPort = 465
	reportSubject   = "今日龙头股筛选结果"
)

func SendReport(ctx context.Context, cfg *config.SMTP, s report.Summary) error {
	if cfg == nil || !cfg.Enabled() {
		return nil
	}
	if s.Result == nil || len(s.Result.Selected) == 0 {
		return nil
	}
	trace.Log(ctx, "mail: SendReport to=%s count=%d", cfg.To, len(s.Result.Selected))
	body := buildHTMLTable(s)
	var toList []string
	for _, t := range strings.Split(cfg.To, ",") {
		if t = strings.TrimSpace(t); t != "" {
			toList = append(toList, t)
		}
	}
	if err := send(cfg, reportSubject, body, toList); err != nil {
		return err
	}
	trace.Log(ctx, "mail: sent ok")
	return nil
}

func buildHTMLTable(s report.Summary) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"><title>选股结果</title></head><body>`)
	b.WriteString(`<h2>今日筛选出的龙头股</h2><p>涨幅&gt;2%·市值50-300亿·换手3%-10%·MA5&gt;MA10&gt;MA20。</p>`)
	b.WriteString(`<table border="1" cellspacing="0" cellpadding="8" style="border-collapse: collapse; font-size: 14px;">`)
	b.WriteString(`<thead><tr style="background: #eee;"><th>代码</th><th>名称</th><th>涨幅%</th><th>换手%</th><th>市值(亿)</th></tr></thead><tbody>`)
	top := s.Result.Selected
	if s.TopN > 0 && len(top) > s.TopN {
		top = top[:s.TopN]
	}
	for _, c := range top {
		b.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%.2f</td><td>%.2f</td><td>%.1f</td></tr>",
			html.EscapeString(c.Code), html.EscapeString(c.Name), c.ChangePct, c.TurnoverRate, c.MarketValueYi))
	}
	b.WriteString("</tbody></table>")
	b.WriteString(fmt.Sprintf("<p>风控：固定止损 %s%%，首次止盈 %s%%。</p>", s.Risk.StopLossPct, s.Risk.TakeProfitPct))
	b.WriteString("</body></html>")
	return b.String()
}

func send(cfg *config.SMTP, subject, htmlBody string, to []string) error {
	port := cfg.Port
	if port == 0 {
		port = defaultSMTPPort
	}
	addr := net.JoinHostPort(cfg.Server, strconv.Itoa(port))

	var conn net.Conn
	var err error
	if port == implicitTLSPort {
		conn, err = tls.DialWithDialer(&net.Dialer{Timeout: smtpTimeout}, "tcp", addr, &tls.Config{ServerName: cfg.Server})
	} else {
		conn, err = net.DialTimeout("tcp", addr, smtpTimeout)
	}
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, cfg.Server)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: cfg.Server}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if cfg.Password != "" {
		auth := smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Server)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(cfg.From); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	for _, t := range to {
		if err := client.Rcpt(t); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", t, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		cfg.From, strings.Join(to, ","), mime.QEncoding.Encode("UTF-8", subject))
	if _, err := w.Write([]byte(headers + htmlBody)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}

// MustSendReport 发送失败只记日志，不影响本轮结果。
func MustSendReport(ctx context.Context, cfg *config.SMTP, s report.Summary) {
	if s.Result == nil || len(s.Result.Selected) == 0 {
		trace.Log(ctx, "mail: 无选中股票，不发邮件")
		return
	}
	if cfg == nil || !cfg.Enabled() {
		trace.Log(ctx, "mail: 未配置 SMTP，跳过")
		return
	}
	if err := SendReport(ctx, cfg, s); err != nil {
		trace.Warn(ctx, "mail: 发送失败 err=%v", err)
		return
	}
	trace.Log(ctx, "mail: 已发送 to=%s count=%d", cfg.To, len(s.Result.Selected))
}
