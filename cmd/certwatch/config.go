package main

import (
	"fmt"
	"os"
	"time"

	"github.com/function61/certwatch/pkg/expirypolicy"
	"github.com/function61/certwatch/pkg/notifier"
	"github.com/function61/gokit/jsonfile"
)

const defaultConfigPath = "certwatch.json"

type config struct {
	Sender       string      `json:"sender"`
	Recipients   []string    `json:"recipients"`
	Deadlines    []int       `json:"deadlines"`               // days before expiration. expiration day is always notified
	Timezone     string      `json:"timezone,omitempty"`      // IANA name, e.g. "Europe/Helsinki". default = local
	Transport    string      `json:"transport"`               // "sendmail" | "smtp" | "ses" | "log"
	SendmailPath string      `json:"sendmail_path,omitempty"` // default /usr/sbin/sendmail
	SMTP         *smtpConfig `json:"smtp,omitempty"`          // required for "smtp" transport
	AwsRegion    string      `json:"aws_region,omitempty"`    // for "ses" transport and s3:// targets. default $AWS_REGION
	Targets      targets     `json:"targets"`                 // only used when running in Lambda
}

type smtpConfig struct {
	Addr     string `json:"addr"` // "host:port"
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

type targets struct {
	Files       []string `json:"files,omitempty"`
	Directories []string `json:"directories,omitempty"`
	S3          []string `json:"s3,omitempty"` // "s3://bucket/prefix"
}

func (t targets) Empty() bool {
	return len(t.Files) == 0 && len(t.Directories) == 0 && len(t.S3) == 0
}

func defaultConfig() config {
	return config{
		Sender:     "certwatch@localhost",
		Recipients: []string{"root@localhost"},
		Deadlines:  expirypolicy.DefaultDeadlines.Days(),
		Transport:  "sendmail",
		AwsRegion:  os.Getenv("AWS_REGION"),
	}
}

// missing file at default path is fine (we'll run with defaults), but if the user
// explicitly pointed us to a file it must exist
func loadConfig(path string) (*config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	conf := defaultConfig()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &conf, nil
		}

		return nil, err
	}
	defer file.Close()

	if err := jsonfile.Unmarshal(file, &conf, true); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &conf, nil
}

func (c *config) deadlines() (expirypolicy.Deadlines, error) {
	return expirypolicy.NewDeadlines(c.Deadlines...)
}

func (c *config) location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}

	return time.LoadLocation(c.Timezone)
}

func (c *config) notifierConfig() notifier.Config {
	return notifier.Config{
		Sender:     c.Sender,
		Recipients: c.Recipients,
	}
}
