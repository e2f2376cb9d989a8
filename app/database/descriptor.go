package database

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	AdapterPostgres = "postgres"
	AdapterSQLite   = "sqlite"
)

// Descriptor locates the store. It is read from a database.yml file.
type Descriptor struct {
	Adapter  string `yaml:"adapter"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	d.applyDefaults()

	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("invalid database config %s: %w", path, err)
	}

	return &d, nil
}

func (d *Descriptor) applyDefaults() {
	switch strings.ToLower(d.Adapter) {
	case "", "postgres", "postgresql":
		d.Adapter = AdapterPostgres
	case "sqlite", "sqlite3":
		d.Adapter = AdapterSQLite
	}

	if d.Adapter != AdapterPostgres {
		return
	}
	if d.Host == "" {
		d.Host = "localhost"
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
}

func (d *Descriptor) validate() error {
	if d.Adapter != AdapterPostgres && d.Adapter != AdapterSQLite {
		return fmt.Errorf("unsupported adapter: %s", d.Adapter)
	}
	if d.Database == "" {
		return fmt.Errorf("database is required")
	}
	if d.Port < 0 {
		return fmt.Errorf("port must be non-negative")
	}
	return nil
}

// DSN returns the driver name and data source name for sqlx.Open.
func (d *Descriptor) DSN() (string, string) {
	if d.Adapter == AdapterSQLite {
		return "sqlite", d.Database + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}

	return "postgres", u.String()
}

// String is safe for logs: the password is never printed.
func (d *Descriptor) String() string {
	if d.Adapter == AdapterSQLite {
		return fmt.Sprintf("sqlite:%s", d.Database)
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s", d.User, d.Host, d.Port, d.Database)
}
