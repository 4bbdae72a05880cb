package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort        string
	TesseractDataPath string
	TesseractLang     string
	MappingsDir       string
	OCRTimeout        time.Duration
	OCRMyPDFBin       string
	PdfToTextBin      string
	MaxFileSize       int64
	DefaultCurrency   string
	LogLevel          string
	LogFile           string
	QRProbe           bool
	VendorParsers     bool
}

func LoadConfig() *Config {
	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		TesseractDataPath: getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/4.00/tessdata"),
		TesseractLang:     getEnv("TESSERACT_LANG", "eng"),
		MappingsDir:       getEnv("MAPPINGS_DIR", "mappings"),
		OCRTimeout:        getEnvAsDuration("OCR_TIMEOUT", 120*time.Second),
		OCRMyPDFBin:       getEnv("OCRMYPDF_BIN", "ocrmypdf"),
		PdfToTextBin:      getEnv("PDFTOTEXT_BIN", "pdftotext"),
		MaxFileSize:       getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024), // 10 MB
		DefaultCurrency:   getEnv("DEFAULT_CURRENCY", "BHD"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
		QRProbe:           getEnvAsBool("QR_PROBE", true),
		VendorParsers:     getEnvAsBool("VENDOR_PARSERS", true),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
