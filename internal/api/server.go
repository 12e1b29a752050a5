package api

import (
	"log"

	"github.com/degreepass/verification_service/config"
	"github.com/degreepass/verification_service/infra/queue"
	"github.com/degreepass/verification_service/internal/api/rest/handlers"
	"github.com/degreepass/verification_service/internal/domain"
	"github.com/degreepass/verification_service/internal/helper"
	"github.com/degreepass/verification_service/internal/repository"
	"github.com/degreepass/verification_service/internal/services"
	"github.com/degreepass/verification_service/pkg/cloudinary"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func StartServer(cfg config.Config) {
	app := fiber.New()

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION + SEED (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260811

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	if err := db.AutoMigrate(
		&domain.Account{},
		&domain.VerificationRequest{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("migration successful")

	authHelper := helper.SetupAuth(cfg.AccessSecret)
	seedAdmin(db, authHelper, cfg)

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)
	cld, err := cloudinary.New(cfg.CloudinaryUrl)
	if err != nil {
		log.Fatalf("cloudinary init error: %v", err)
	}
	up := cloudinary.NewCloudinaryUploader(cld)

	lookupCache := gocache.New(cfg.LookupCacheTTL, 2*cfg.LookupCacheTTL)

	// ---------- Repositories ----------
	accountRepo := repository.NewAccountRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	// ---------- Services ----------
	accountSvc := services.NewAccountService(
		accountRepo,
		kafkaProducer,
		authHelper,
		lookupCache,
		cfg.DeleteCascadeRequests,
	)
	verificationSvc := services.NewVerificationService(
		requestRepo,
		accountRepo,
		kafkaProducer,
		up,
		lookupCache,
		cfg.RequireApprovedSubmitter,
	)

	// ---------- Handlers ----------
	authHandler := handlers.NewAuthHandler(accountSvc)
	verificationHandler := handlers.NewVerificationHandler(verificationSvc)
	uploadHandler := handlers.NewUploadHandler(up)

	handlers.SetupRoutes(app, authHelper, accountSvc, authHandler, verificationHandler, uploadHandler)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Listen ----------
	addr := cfg.ServerPort
	log.Println("listening on", addr)
	log.Fatal(app.Listen(addr))
}

// seedAdmin guarantees one reviewer account exists. Students can only
// register through the public signup, always unapproved.
func seedAdmin(db *gorm.DB, auth helper.Auth, cfg config.Config) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set - skipping admin seed")
		return
	}

	var existing domain.Account
	err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return
	}
	if err != gorm.ErrRecordNotFound {
		log.Printf("admin seed lookup error: %v", err)
		return
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Printf("admin seed hash error: %v", err)
		return
	}

	if err := db.Create(&domain.Account{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsApproved:   true,
	}).Error; err != nil {
		log.Printf("admin seed error: %v", err)
		return
	}
	log.Println("admin account seeded")
}
