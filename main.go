package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/aplabs-bh/ocr-invoice-extraction/client"
	"github.com/aplabs-bh/ocr-invoice-extraction/config"
	"github.com/aplabs-bh/ocr-invoice-extraction/handler"
	"github.com/aplabs-bh/ocr-invoice-extraction/logging"
	"github.com/aplabs-bh/ocr-invoice-extraction/mapping"
	"github.com/aplabs-bh/ocr-invoice-extraction/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Tesseract resolves its language data through this variable
	os.Setenv("TESSDATA_PREFIX", cfg.TesseractDataPath)

	store := mapping.NewStore(cfg.MappingsDir, logger)
	if err := store.Load(); err != nil {
		logger.Fatalw("Failed to load mapping profiles", "dir", cfg.MappingsDir, "error", err)
	}

	runner := client.NewExecRunner(logger)
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath, cfg.TesseractLang)
	ocrMyPDFClient := client.NewOCRMyPDFClient(cfg.OCRMyPDFBin, cfg.OCRTimeout, runner, logger)
	pdfToTextClient := client.NewPdfToTextClient(cfg.PdfToTextBin, cfg.OCRTimeout, runner, logger)

	pdfProcessor := service.NewPDFProcessor()
	cascade := service.NewTextCascade(pdfProcessor, pdfToTextClient, logger)
	fallback := service.NewOCRFallback(pdfProcessor, tesseractClient, ocrMyPDFClient, logger)
	selector := mapping.NewSelector(store)

	var qrProbe *service.BarcodeProbe
	if cfg.QRProbe {
		qrProbe = service.NewBarcodeProbe(pdfProcessor, logger)
	}

	extractor := service.NewExtractionService(cascade, fallback, selector, qrProbe, cfg.VendorParsers, logger)
	batch := service.NewBatchService(extractor, cfg.DefaultCurrency, cfg.MaxFileSize, logger)

	extractHandler := handler.NewExtractHandler(extractor, batch, cfg.MaxFileSize, logger)
	mappingHandler := handler.NewMappingHandler(store, logger)

	router := gin.Default()

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Invoice Field Extraction",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/extract", extractHandler.Extract)
		api.POST("/extract/batch", extractHandler.BatchExtract)

		mappings := api.Group("/mappings")
		{
			mappings.GET("", mappingHandler.ListMappings)
			mappings.POST("/reload", mappingHandler.ReloadMappings)
		}
	}

	logger.Infow("Starting Invoice Field Extraction Service",
		"port", cfg.ServerPort,
		"mappings", store.Count(),
	)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatalw("Failed to start server", "error", err)
	}
}
