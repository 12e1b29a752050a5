// Demo-data seeder for local development. Creates fake student
// accounts with a mix of approved/pending states and a few
// verification requests, some already completed.
//
// Usage: DATABASE_DSN=... go run ./cmd/seed -students 10 -requests 6
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/degreepass/verification_service/config"
	"github.com/degreepass/verification_service/internal/domain"
	"github.com/degreepass/verification_service/internal/helper"
	"github.com/degreepass/verification_service/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var degreeTitles = []string{
	"BS Computer Science",
	"BSc Economics",
	"BE Electrical Engineering",
	"MBBS",
	"LLB",
	"MA English Literature",
}

func main() {
	students := flag.Int("students", 10, "number of fake student accounts")
	requests := flag.Int("requests", 6, "number of fake verification requests")
	flag.Parse()

	cfg := config.LoadConfig()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}

	if err := db.AutoMigrate(&domain.Account{}, &domain.VerificationRequest{}); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	auth := helper.SetupAuth(cfg.AccessSecret)
	hash, err := auth.HashPassword("password123")
	if err != nil {
		log.Fatalf("hash error: %v", err)
	}

	accounts := make([]domain.Account, 0, *students)
	for i := 0; i < *students; i++ {
		acc := domain.Account{
			Name:         gofakeit.Name(),
			Email:        gofakeit.Email(),
			PasswordHash: hash,
			Role:         domain.RoleStudent,
			IsApproved:   i%2 == 0, // half pending, half approved
		}
		if err := db.Create(&acc).Error; err != nil {
			log.Printf("seed account error: %v", err)
			continue
		}
		accounts = append(accounts, acc)
	}
	log.Printf("seeded %d student accounts (password: password123)", len(accounts))

	if len(accounts) == 0 {
		return
	}

	seeded := 0
	for i := 0; i < *requests; i++ {
		code, err := utils.GenerateAccessCode()
		if err != nil {
			log.Fatalf("access code error: %v", err)
		}

		owner := accounts[i%len(accounts)]
		serviceType := domain.ServiceTypeAcademic
		if i%2 == 1 {
			serviceType = domain.ServiceTypeEmployment
		}

		req := domain.VerificationRequest{
			AccountID:        owner.ID,
			FullName:         owner.Name,
			UniversityName:   fmt.Sprintf("University of %s", gofakeit.City()),
			DegreeTitle:      degreeTitles[i%len(degreeTitles)],
			GraduationYear:   gofakeit.Number(2005, 2025),
			RegistrationNo:   fmt.Sprintf("REG-%d", gofakeit.Number(10000, 99999)),
			ServiceType:      serviceType,
			PackageType:      domain.DefaultPackageType,
			DegreeDocURL:     gofakeit.URL(),
			TranscriptDocURL: gofakeit.URL(),
			PassportDocURL:   gofakeit.URL(),
			AccessCode:       code,
			Status:           domain.RequestStatusPending,
		}

		// every third request arrives already completed
		if i%3 == 2 {
			req.Status = domain.RequestStatusCompleted
			req.VerifiedReportURL = gofakeit.URL()
		}

		if err := db.Create(&req).Error; err != nil {
			log.Printf("seed request error: %v", err)
			continue
		}
		seeded++
		log.Printf("request %d access code: %s (%s)", req.ID, req.AccessCode, req.Status)
	}
	log.Printf("seeded %d verification requests", seeded)
}
