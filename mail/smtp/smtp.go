package smtp

import (
	"strings"

	"github.com/pkg/errors"
)

// DefaultPort is the submission port used when neither the config nor the
// service preset names one.
const DefaultPort = 587

// Config contains SMTP connection parameters.
type Config struct {
	Service  string `envconfig:"SMTP_SERVICE" default:"gmail"`  // well-known provider preset, used when Host is empty
	Host     string `envconfig:"SMTP_HOST"`                     // smtp.gmail.com
	Port     int    `envconfig:"SMTP_PORT"`                     // 587 for STARTTLS
	Username string `envconfig:"SMTP_USER"`                     // username or email
	Password string `envconfig:"SMTP_PASSWORD"`                 // password or app password
	From     string `envconfig:"SMTP_FROM"`                     // default from address (optional)
	TLS      bool   `envconfig:"SMTP_TLS" default:"true"`       // enable STARTTLS
	Insecure bool   `envconfig:"SMTP_INSECURE" default:"false"` // skip certificate verification
}

type service struct {
	host string
	port int
}

var services = map[string]service{
	"gmail":   {host: "smtp.gmail.com", port: 587},
	"outlook": {host: "smtp.office365.com", port: 587},
	"yahoo":   {host: "smtp.mail.yahoo.com", port: 587},
	"zoho":    {host: "smtp.zoho.com", port: 587},
}

// Resolve fills Host and Port from the Service preset when they are not set
// explicitly. An explicit Host always wins over the preset.
func (c Config) Resolve() (Config, error) {
	if c.Host == "" {
		name := strings.ToLower(strings.TrimSpace(c.Service))
		if name == "" {
			return c, errors.New("smtp host or service is required")
		}
		svc, ok := services[name]
		if !ok {
			return c, errors.Errorf("unknown smtp service %q", c.Service)
		}
		c.Host = svc.host
		if c.Port == 0 {
			c.Port = svc.port
		}
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}

	return c, nil
}
