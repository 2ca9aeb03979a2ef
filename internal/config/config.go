// Package config загружает конфигурацию producer'а и consumer'а из окружения.
//
// Значения читаются из переменных окружения; если в рабочей директории есть
// файл .env, он подгружается первым (уже заданные переменные не перезаписываются).
// Флаги командной строки применяются поверх (см. internal/cli).
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Значения по умолчанию.
const (
	DefaultHost           = "rabbitmq"
	DefaultPort           = 5672
	DefaultUser           = "guest"
	DefaultPassword       = "guest"
	DefaultVhost          = "/"
	DefaultRetryDelay     = 3 * time.Second
	DefaultTaskCount      = 10
	DefaultMatrixSize     = 10
	DefaultRateLimit      = 200 * time.Millisecond
	DefaultConsumeTimeout = time.Second
	DefaultIdleThreshold  = 10
)

// ErrInvalidConfig — некорректное значение конфигурации.
var ErrInvalidConfig = errors.New("invalid config")

// Broker — параметры подключения к RabbitMQ.
type Broker struct {
	// URL, если задан, заменяет Host/Port/User/Password/Vhost.
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Vhost    string

	// RetryDelay — пауза между попытками соединения.
	RetryDelay time.Duration

	// MaxAttempts — предел попыток соединения; 0 — без ограничения.
	MaxAttempts int

	// Durable — объявлять очереди как durable.
	Durable bool
}

// DSN возвращает AMQP URL.
func (b Broker) DSN() string {
	if b.URL != "" {
		return b.URL
	}
	return b.url(url.UserPassword(b.User, b.Password))
}

// Redacted возвращает AMQP URL без пароля, для логов.
func (b Broker) Redacted() string {
	if b.URL != "" {
		u, err := url.Parse(b.URL)
		if err != nil {
			return "<invalid url>"
		}
		if u.User != nil {
			u.User = url.User(u.User.Username())
		}
		return u.String()
	}
	return b.url(url.User(b.User))
}

func (b Broker) url(user *url.Userinfo) string {
	u := url.URL{
		Scheme: "amqp",
		User:   user,
		Host:   net.JoinHostPort(b.Host, strconv.Itoa(b.Port)),
		Path:   "/",
	}
	if b.Vhost != "" && b.Vhost != DefaultVhost {
		u.Path = "/" + b.Vhost
	}
	return u.String()
}

// Producer — параметры генерации задач.
type Producer struct {
	// TaskCount — количество задач; игнорируется при Infinite.
	TaskCount int

	// Infinite — публиковать до остановки по сигналу.
	Infinite bool

	// MatrixSize — размерность N.
	MatrixSize int

	// RateLimit — пауза между публикациями.
	RateLimit time.Duration
}

// Consumer — параметры цикла потребления.
type Consumer struct {
	// ConsumeTimeout — максимальное ожидание одного сообщения.
	ConsumeTimeout time.Duration

	// IdleThreshold — сколько таймаутов подряд приводят к остановке.
	IdleThreshold int
}

// Config — полная конфигурация процесса.
type Config struct {
	Broker   Broker
	Producer Producer
	Consumer Consumer

	// MetricsAddr — адрес /metrics; пустой — сервер не запускается.
	MetricsAddr string
}

// Load читает конфигурацию из .env (если есть) и окружения.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv строит конфигурацию из функции поиска переменных.
func FromEnv(getenv func(string) string) (Config, error) {
	var err error
	cfg := Default()
	e := env{getenv: getenv}

	cfg.Broker.URL = getenv("RABBITMQ_URL")
	cfg.Broker.Host = e.str("RABBITMQ_HOST", cfg.Broker.Host)
	cfg.Broker.User = e.str("RABBITMQ_USER", cfg.Broker.User)
	cfg.Broker.Password = e.str("RABBITMQ_PASS", cfg.Broker.Password)
	cfg.Broker.Vhost = e.str("RABBITMQ_VHOST", cfg.Broker.Vhost)
	cfg.MetricsAddr = e.str("METRICS_ADDR", cfg.MetricsAddr)

	if cfg.Broker.Port, err = e.integer("RABBITMQ_PORT", cfg.Broker.Port); err != nil {
		return Config{}, err
	}
	if cfg.Broker.Durable, err = e.boolean("QUEUE_DURABLE", cfg.Broker.Durable); err != nil {
		return Config{}, err
	}
	if cfg.Broker.RetryDelay, err = e.duration("DIAL_RETRY_DELAY", cfg.Broker.RetryDelay); err != nil {
		return Config{}, err
	}
	if cfg.Broker.MaxAttempts, err = e.integer("DIAL_MAX_ATTEMPTS", cfg.Broker.MaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.Producer.TaskCount, err = e.integer("TASK_COUNT", cfg.Producer.TaskCount); err != nil {
		return Config{}, err
	}
	if cfg.Producer.Infinite, err = e.boolean("TASK_INFINITE", cfg.Producer.Infinite); err != nil {
		return Config{}, err
	}
	if cfg.Producer.MatrixSize, err = e.integer("MATRIX_SIZE", cfg.Producer.MatrixSize); err != nil {
		return Config{}, err
	}
	if cfg.Producer.RateLimit, err = e.duration("RATE_LIMIT", cfg.Producer.RateLimit); err != nil {
		return Config{}, err
	}
	if cfg.Consumer.ConsumeTimeout, err = e.duration("CONSUME_TIMEOUT", cfg.Consumer.ConsumeTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Consumer.IdleThreshold, err = e.integer("IDLE_THRESHOLD", cfg.Consumer.IdleThreshold); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		Broker: Broker{
			Host:       DefaultHost,
			Port:       DefaultPort,
			User:       DefaultUser,
			Password:   DefaultPassword,
			Vhost:      DefaultVhost,
			RetryDelay: DefaultRetryDelay,
		},
		Producer: Producer{
			TaskCount:  DefaultTaskCount,
			MatrixSize: DefaultMatrixSize,
			RateLimit:  DefaultRateLimit,
		},
		Consumer: Consumer{
			ConsumeTimeout: DefaultConsumeTimeout,
			IdleThreshold:  DefaultIdleThreshold,
		},
	}
}

// Validate проверяет все значения после применения флагов.
func (c Config) Validate() error {
	if err := c.Broker.Validate(); err != nil {
		return err
	}
	if err := c.Producer.Validate(); err != nil {
		return err
	}
	return c.Consumer.Validate()
}

// Validate проверяет параметры подключения.
func (b Broker) Validate() error {
	if b.URL == "" {
		if b.Host == "" {
			return fmt.Errorf("%w: broker host is empty", ErrInvalidConfig)
		}
		if b.Port <= 0 || b.Port > 65535 {
			return fmt.Errorf("%w: broker port %d out of range", ErrInvalidConfig, b.Port)
		}
	} else if _, err := amqp.ParseURI(b.URL); err != nil {
		return fmt.Errorf("%w: RABBITMQ_URL: %w", ErrInvalidConfig, err)
	}
	if b.RetryDelay <= 0 {
		return fmt.Errorf("%w: retry delay must be positive", ErrInvalidConfig)
	}
	if b.MaxAttempts < 0 {
		return fmt.Errorf("%w: dial max attempts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate проверяет параметры producer'а.
func (p Producer) Validate() error {
	if !p.Infinite && p.TaskCount <= 0 {
		return fmt.Errorf("%w: task count must be positive (or use infinite mode)", ErrInvalidConfig)
	}
	if p.MatrixSize <= 0 {
		return fmt.Errorf("%w: matrix size must be positive", ErrInvalidConfig)
	}
	if p.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate проверяет параметры consumer'а.
func (c Consumer) Validate() error {
	if c.ConsumeTimeout <= 0 {
		return fmt.Errorf("%w: consume timeout must be positive", ErrInvalidConfig)
	}
	if c.IdleThreshold <= 0 {
		return fmt.Errorf("%w: idle threshold must be positive", ErrInvalidConfig)
	}
	return nil
}

// env — чтение типизированных переменных с значением по умолчанию.
type env struct {
	getenv func(string) string
}

func (e env) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e env) integer(key string, def int) (int, error) {
	v := e.getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a valid integer: %w", ErrInvalidConfig, key, err)
	}
	return n, nil
}

func (e env) boolean(key string, def bool) (bool, error) {
	v := e.getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean: %w", ErrInvalidConfig, key, err)
	}
	return b, nil
}

// duration принимает "250ms", "3s" или целое число миллисекунд.
func (e env) duration(key string, def time.Duration) (time.Duration, error) {
	v := e.getenv(key)
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a duration: %w", ErrInvalidConfig, key, err)
	}
	return d, nil
}
