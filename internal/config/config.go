package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment override key
	EnvPrefix = "CANSAT"

	// EnvConfigFile names the variable holding the configuration file path
	EnvConfigFile = EnvPrefix + "_CONFIG"
)

// Settings represents settings shared by every program
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// Path resolves the configuration file path: the flag value wins over the
// CANSAT_CONFIG environment variable.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfigFile)
}

// Load hydrates target with values from the YAML file at path (optional, may be empty)
// and then overrides them with environment variables. An override key spells the
// YAML path of the field in upper case, so radio.frequencyMHz is read from
// CANSAT_RADIO_FREQUENCYMHZ.
func Load(path string, target any) error {
	if target == nil {
		return errors.New("config: target is nil")
	}

	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return errors.New("config: target must be pointer to struct")
	}

	if path != "" {
		if err := loadFromFile(path, target); err != nil {
			return err
		}
	}

	return applyEnv(val.Elem(), EnvPrefix)
}

func loadFromFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file: %w", err)
	}

	if err = yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("config: decode yaml: %w", err)
	}

	return nil
}

var durationType = reflect.TypeOf(Duration(0))

// applyEnv walks the sections of a program configuration. Leaves are the
// scalar kinds those sections hold: strings (including named ones like
// ClockSource), flags, counts, I2C addresses, calibration factors and
// durations.
func applyEnv(section reflect.Value, prefix string) error {
	t := section.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		key := prefix + "_" + strings.ToUpper(name)

		value := section.Field(i)
		if value.Kind() == reflect.Struct {
			if err := applyEnv(value, key); err != nil {
				return err
			}
			continue
		}

		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := setScalar(value, raw); err != nil {
			return fmt.Errorf("config: parse %s: %w", key, err)
		}
	}
	return nil
}

func setScalar(v reflect.Value, raw string) error {
	if v.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	case reflect.Uint8:
		// addresses are usually written in hex
		n, err := strconv.ParseUint(raw, 0, 8)
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("%s fields cannot be set from the environment", v.Type())
	}
	return nil
}
