// Package constants provides shared constants for the financing-wizard application.
package constants

// DateLayout is the pt-BR date format printed on rendered proposals.
const DateLayout = "02/01/2006"

// DateTimeLayout is the pt-BR date and time format used in admin listings.
const DateTimeLayout = "02/01/2006 15:04"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// CurrencyPlaces is the number of decimal places kept for currency values
	CurrencyPlaces = 2

	// DefaultAnnualRate is the fixed nominal annual interest rate (12%)
	DefaultAnnualRate = "0.12"

	// DefaultMinDownPaymentRatio is the minimum down payment as a fraction of the financed amount
	DefaultMinDownPaymentRatio = "0.2"

	// CurrencySymbol is the Brazilian real symbol
	CurrencySymbol = "R$"
)

// Calculation bounds
const (
	// MaxTermMonths is the longest term accepted from callers and the longest schedule generated
	MaxTermMonths = 1200

	// MaxAmount is the largest absolute amount accepted for any money input
	MaxAmount = "1000000000000000"

	// MaxAnnualRate is the largest annual rate fraction the calculator accepts
	MaxAnnualRate = "10"

	// MaxAmountScale is the most fractional digits an accepted amount may carry
	MaxAmountScale = 10

	// CompoundCeiling is the growth factor past which a payment has converged to the interest on the principal
	CompoundCeiling = "1e40"
)

// DefaultTermOptions is the closed set of loan terms, in months, a proposal may use.
var DefaultTermOptions = []int{120, 180, 240, 300, 360}

// Document length constants
const (
	// CPFDigits is the number of digits in a CPF
	CPFDigits = 11

	// LandlineDigits is the number of digits in a landline number including area code
	LandlineDigits = 10

	// MobileDigits is the number of digits in a mobile number including area code
	MobileDigits = 11

	// MinAreaCode is the lowest valid Brazilian area code
	MinAreaCode = 11

	// MaxAreaCode is the highest valid Brazilian area code
	MaxAreaCode = 99

	// MinFullNameLength is the minimum length of a normalized full name
	MinFullNameLength = 3

	// MinNamePartLength is the minimum length of each part of a full name
	MinNamePartLength = 2
)

// Document format constants
const (
	// DocumentFormatText is the human-readable proposal document
	DocumentFormatText = "text"

	// DocumentFormatCSV is the CSV proposal document
	DocumentFormatCSV = "csv"

	// DocumentFormatYAML is the YAML proposal document
	DocumentFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "FINWIZ"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the wizard API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (1 MB), sized for signature images
	DefaultMaxUploadSizeBytes int64 = 1024 * 1024

	// DefaultRateLimitRequests is the default number of requests per window for rate limited routes
	DefaultRateLimitRequests = 10

	// DefaultRateLimitWindow is the default rate limit refill window
	DefaultRateLimitWindow = "1m"
)

// Storage defaults
const (
	// StorageDriverMemory keeps proposals in process memory
	StorageDriverMemory = "memory"

	// StorageDriverSQLite persists proposals in an embedded SQLite database
	StorageDriverSQLite = "sqlite"

	// StorageDriverPostgres persists proposals in PostgreSQL
	StorageDriverPostgres = "postgres"

	// DefaultSQLiteDSN is the default SQLite database file
	DefaultSQLiteDSN = "financing-wizard.db"

	// SessionDriverMemory keeps wizard sessions in process memory
	SessionDriverMemory = "memory"

	// SessionDriverRedis keeps wizard sessions in Redis
	SessionDriverRedis = "redis"

	// DefaultSessionTTL is how long an idle wizard session is kept
	DefaultSessionTTL = "24h"

	// DefaultDocumentLinkTTL is how long a signed document download link stays valid
	DefaultDocumentLinkTTL = "15m"

	// DocumentReferencePrefix prefixes the opaque references returned for stored documents
	DocumentReferencePrefix = "documents/"
)

// Validation constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100
)
