package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for
// durations, capacities and cent amounts.
type Config struct {
    Env                string // application environment (e.g. "dev", "prod"); also the fee schedule scope
    Port               string // HTTP port to listen on
    DBUser             string // database username
    DBPass             string // database password (optional)
    DBHost             string // database host address
    DBPort             string // database port number
    DBName             string // database name
    GatePassSecret     string // secret used to sign gate pass JWTs
    GatePassTTLMin     int    // gate pass time-to-live in minutes
    GateMaxConcurrent  int    // concurrent purchaser ceiling per event
    ReapIntervalSec    int    // background staleness reaper interval in seconds
    ProtectionFeeCents int64  // flat ticket-protection add-on, in cents
    PaymentMode        string // "http" to use the external processor, "mock" otherwise
    PaymentURL         string // base URL of the payment processor (http mode)
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Operational knobs
// with safe defaults use the optional helpers.
func Load() Config {
    return Config{
        Env:                must("APP_ENV"),         // environment (dev/test/prod)
        Port:               must("APP_PORT"),        // port to bind the HTTP server
        DBUser:             must("DB_USER"),         // database user
        DBPass:             os.Getenv("DB_PASS"),    // database password (empty allowed)
        DBHost:             must("DB_HOST"),         // database host
        DBPort:             must("DB_PORT"),         // database port
        DBName:             must("DB_NAME"),         // database name
        GatePassSecret:     must("GATE_PASS_SECRET"),
        GatePassTTLMin:     optInt("GATE_PASS_TTL_MIN", 45),
        GateMaxConcurrent:  optInt("GATE_MAX_CONCURRENT", 25),
        ReapIntervalSec:    optInt("GATE_REAP_INTERVAL_SEC", 60),
        ProtectionFeeCents: int64(optInt("PROTECTION_FEE_CENTS", 700)),
        PaymentMode:        getenv("PAYMENT_MODE", "mock"),
        PaymentURL:         os.Getenv("PAYMENT_PROCESSOR_URL"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// optInt reads an optional integer environment variable, falling back to
// the default when unset or unparsable.
func optInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, v)
    }
    return n
}
