package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Platform currency. There is no FX; every amount is in this currency.
const Currency = "KES"

// LedgerConfig holds the money rules shared by the workflows.
type LedgerConfig struct {
	WithdrawalFeeRate decimal.Decimal
	WithdrawalMin     decimal.Decimal
	WithdrawalMax     decimal.Decimal
	DepositMin        decimal.Decimal
	DepositMax        decimal.Decimal
	MaxOrderItems     int
}

// DefaultLedgerConfig matches the platform's published rates.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		WithdrawalFeeRate: decimal.RequireFromString("0.08"),
		WithdrawalMin:     decimal.NewFromInt(500),
		WithdrawalMax:     decimal.NewFromInt(500000),
		DepositMin:        decimal.NewFromInt(100),
		DepositMax:        decimal.NewFromInt(1000000),
		MaxOrderItems:     20,
	}
}

// LoadLedgerConfig reads the ledger rules from the environment.
func LoadLedgerConfig() LedgerConfig {
	def := DefaultLedgerConfig()
	return LedgerConfig{
		WithdrawalFeeRate: GetDecimalEnv("WITHDRAWAL_FEE_RATE", def.WithdrawalFeeRate),
		WithdrawalMin:     GetDecimalEnv("WITHDRAWAL_MIN", def.WithdrawalMin),
		WithdrawalMax:     GetDecimalEnv("WITHDRAWAL_MAX", def.WithdrawalMax),
		DepositMin:        GetDecimalEnv("DEPOSIT_MIN", def.DepositMin),
		DepositMax:        GetDecimalEnv("DEPOSIT_MAX", def.DepositMax),
		MaxOrderItems:     GetIntEnv("MAX_ORDER_ITEMS", def.MaxOrderItems),
	}
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoadDBConfig reads the store settings from the environment.
func LoadDBConfig() DBConfig {
	return DBConfig{
		Driver:          GetEnv("STORE_DRIVER", "postgres"),
		Host:            GetEnv("DB_HOST", "localhost"),
		Port:            GetEnv("DB_PORT", "5432"),
		User:            GetEnv("DB_USER", "postgres"),
		Password:        GetEnv("DB_PASSWORD", "postgres"),
		Name:            GetEnv("DB_NAME", "hydrofund"),
		SSLMode:         GetEnv("DB_SSLMODE", "disable"),
		MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	}
}

// DSN builds the postgres connection string.
func (c DBConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=UTC"
}
