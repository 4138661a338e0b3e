package mail

import (
	"github.com/starboard-analytics/news-core/internal/config"
)

// BuildConfig maps the application mail settings onto the sender config so
// that every caller (welcome sends, batch delivery) builds it consistently.
func BuildConfig(cfg *config.AppConfig) Config {
	if cfg == nil {
		return Config{}
	}
	mc := Config{
		Enable:  cfg.Mail.Enable,
		Host:    cfg.Mail.Host,
		Port:    cfg.Mail.Port,
		User:    cfg.Mail.User,
		Pass:    cfg.Mail.Pass,
		From:    cfg.Mail.From,
		ReplyTo: cfg.Mail.ReplyTo,
	}
	if cfg.Mail.ResendKey != "" {
		mc.UseResend = true
		mc.ResendKey = cfg.Mail.ResendKey
	}
	return mc
}
