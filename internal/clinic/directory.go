package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrClinicNotFound is returned when a destination number has no clinic record.
// The fallback policy (default clinic, abort) is the caller's concern.
var ErrClinicNotFound = errors.New("clinic: no clinic for number")

var digitsRe = regexp.MustCompile(`\d+`)

// defaultCountryCode is prefixed onto bare local numbers before lookup.
// Brazilian numbers are 10 or 11 digits without the country code.
const defaultCountryCode = "55"

// normalizeNumber strips non-digits and enforces a leading country code.
func normalizeNumber(value string) string {
	digits := strings.Join(digitsRe.FindAllString(value, -1), "")
	if digits == "" {
		return ""
	}
	if len(digits) == 10 || len(digits) == 11 {
		return defaultCountryCode + digits
	}
	return digits
}

// NormalizeNumber is the exported form used by callers that need the same
// normalization the directory applies before lookup.
func NormalizeNumber(value string) string {
	return normalizeNumber(value)
}

// Directory maps a clinic's WhatsApp number to its configuration record.
type Directory interface {
	Resolve(ctx context.Context, destinationNumber string) (*ClinicConfig, error)
}

// Store persists clinic configurations in Redis, keyed by normalized
// WhatsApp number. Records are read-mostly: the conversation flow only
// resolves, the admin surface upserts.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new clinic config store.
func NewStore(redisClient *redis.Client) *Store {
	if redisClient == nil {
		panic("clinic: redis client cannot be nil")
	}
	return &Store{redis: redisClient}
}

func (s *Store) key(number string) string {
	return fmt.Sprintf("clinic:number:%s", number)
}

// Resolve implements Directory. The input is normalized before lookup.
func (s *Store) Resolve(ctx context.Context, destinationNumber string) (*ClinicConfig, error) {
	number := normalizeNumber(destinationNumber)
	if number == "" {
		return nil, ErrClinicNotFound
	}

	data, err := s.redis.Get(ctx, s.key(number)).Bytes()
	if err == redis.Nil {
		return nil, ErrClinicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: resolve %s: %w", number, err)
	}

	var cfg ClinicConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal config for %s: %w", number, err)
	}
	return &cfg, nil
}

// Set saves a clinic config under its normalized WhatsApp number.
func (s *Store) Set(ctx context.Context, cfg *ClinicConfig) error {
	if cfg == nil {
		return errors.New("clinic: config cannot be nil")
	}
	number := normalizeNumber(cfg.WhatsAppNumber)
	if number == "" {
		return errors.New("clinic: config is missing a whatsapp number")
	}
	cfg.WhatsAppNumber = number

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("clinic: marshal config: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(number), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set config: %w", err)
	}
	return nil
}

// StaticDirectory maps normalized numbers to configs in memory. Used by tests
// and single-tenant deployments that carry their config in a file or env.
type StaticDirectory struct {
	configs map[string]*ClinicConfig
}

// NewStaticDirectory constructs a directory backed by an in-memory map.
func NewStaticDirectory(configs []*ClinicConfig) *StaticDirectory {
	byNumber := make(map[string]*ClinicConfig, len(configs))
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		number := normalizeNumber(cfg.WhatsAppNumber)
		if number == "" {
			continue
		}
		byNumber[number] = cfg
	}
	return &StaticDirectory{configs: byNumber}
}

// Resolve implements Directory.
func (d *StaticDirectory) Resolve(ctx context.Context, destinationNumber string) (*ClinicConfig, error) {
	if d == nil {
		return nil, ErrClinicNotFound
	}
	number := normalizeNumber(destinationNumber)
	if number == "" {
		return nil, ErrClinicNotFound
	}
	cfg, ok := d.configs[number]
	if !ok {
		return nil, ErrClinicNotFound
	}
	return cfg, nil
}
