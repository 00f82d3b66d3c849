package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))
	out.Logging.Level = strings.ToLower(strings.TrimSpace(out.Logging.Level))
	out.Logging.Encoding = strings.ToLower(strings.TrimSpace(out.Logging.Encoding))
	out.HTTP.UserAgent = strings.TrimSpace(out.HTTP.UserAgent)

	// ---- store ----

	switch out.Store.Driver {
	case DriverSQLite:
		if strings.TrimSpace(out.Store.Path) == "" {
			res.addErr("store.path is required when store.driver=sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(out.Store.DBName) == "" {
			res.addErr("store.dbname (or %s) is required when store.driver=postgres", EnvPGDBName)
		}
		if strings.TrimSpace(out.Store.User) == "" {
			res.addErr("store.user (or %s) is required when store.driver=postgres", EnvPGUser)
		}
		if out.Store.Password == "" {
			res.addWarn("no postgres password in %s; the OS keychain will be tried", EnvPGPassword)
		}
	default:
		res.addErr("store.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, out.Store.Driver)
	}

	// ---- pacing ----

	if out.Pacing.ListingDelay < 0 {
		res.addErr("pacing.listing_delay must be >= 0")
	}
	if out.Pacing.DetailDelay < 0 {
		res.addErr("pacing.detail_delay must be >= 0")
	}
	if out.Pacing.DetailDelay < out.Pacing.ListingDelay {
		res.addWarn("pacing.detail_delay (%s) is shorter than pacing.listing_delay (%s)", out.Pacing.DetailDelay, out.Pacing.ListingDelay)
	}
	if out.Pacing.ListingDelay == 0 && out.Pacing.DetailDelay == 0 {
		res.addWarn("pacing delays are zero; vendors may rate-limit or ban this host")
	}

	// ---- http ----

	if out.HTTP.Timeout <= 0 {
		res.addErr("http.timeout must be > 0")
	} else if out.HTTP.Timeout > 2*time.Minute {
		res.addWarn("http.timeout is very high (%s); a stuck site will stall the whole run", out.HTTP.Timeout)
	}
	if out.HTTP.HostRPS <= 0 {
		res.addErr("http.host_rps must be > 0")
	}
	if out.HTTP.HostBurst < 1 {
		res.addWarn("http.host_burst < 1, using 1")
		out.HTTP.HostBurst = 1
	}

	// ---- logging ----

	switch out.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		res.addErr("logging.level must be debug, info, warn or error, got %q", out.Logging.Level)
	}
	switch out.Logging.Encoding {
	case "console", "json":
	default:
		res.addErr("logging.encoding must be console or json, got %q", out.Logging.Encoding)
	}

	if strings.TrimSpace(out.LockDir) == "" {
		res.addErr("lock_dir must not be empty")
	}

	return out, res
}
