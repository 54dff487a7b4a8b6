package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/psuflow/psuflow-api/internal/models"
	"github.com/psuflow/psuflow-api/internal/repository"
	"github.com/psuflow/psuflow-api/pkg/config"
	"github.com/psuflow/psuflow-api/pkg/database"
	"github.com/psuflow/psuflow-api/pkg/logger"
)

type seedUser struct {
	Username      string
	Name          string
	Role          models.UserRole
	Password      string
	StaffCategory string
}

// Development accounts. Passwords are rotated with --reset.
var seedUsers = []seedUser{
	{Username: "sarah_alduhaim", Name: "Sarah Alduhaim", Role: models.RoleStudent, Password: "sara@23"},
	{Username: "raghad_alamirah", Name: "Raghad Alamirah", Role: models.RoleStudent, Password: "rghd@23"},
	{Username: "dana_ahmad", Name: "Danah Ahmad", Role: models.RoleStudent, Password: "dana@22"},
	{Username: "haifa", Name: "Haifa", Role: models.RoleStudent, Password: "haifa@111"},
	{Username: "angie_alkanani", Name: "Angie", Role: models.RoleStudent, Password: "angie@99"},
	{Username: "dalal", Name: "Dalal", Role: models.RoleStudent, Password: "dalal@22"},
	{Username: "Dr.Reem", Name: "Dr. Reem", Role: models.RoleFaculty, Password: "reem@222"},
	{Username: "Dr.Suad", Name: "Dr. Suad", Role: models.RoleFaculty, Password: "suadr@123"},
	{Username: "Dr.Basmah", Name: "Dr. Basmah", Role: models.RoleFaculty, Password: "basmah@33"},
	{Username: "Dr.Noura", Name: "Dr. Noura", Role: models.RoleFaculty, Password: "noura@44"},
	{Username: "MsMona", Name: "Ms. Mona", Role: models.RoleStaff, Password: "mona@123", StaffCategory: "Registration"},
	{Username: "MsSara", Name: "Ms. Sara", Role: models.RoleStaff, Password: "sara@123", StaffCategory: "Accounting"},
	{Username: "MsMaha", Name: "Ms. Maha", Role: models.RoleStaff, Password: "maha@123", StaffCategory: "Advising"},
}

type userWriter interface {
	Insert(ctx context.Context, user *models.User) (bool, error)
	Upsert(ctx context.Context, user *models.User) error
}

type seedResult struct {
	Created int
	Updated int
	Skipped int
}

func main() {
	reset := flag.Bool("reset", false, "overwrite name, role and password of existing users")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logr); err != nil {
		logr.Fatal("failed to migrate database", zap.Error(err))
	}

	result, err := seed(ctx, repository.NewUserRepository(db), seedUsers, *reset, bcrypt.DefaultCost, logr)
	if err != nil {
		logr.Fatal("seeding failed", zap.Error(err))
	}
	logr.Info("seeding complete", zap.Int("created", result.Created), zap.Int("updated", result.Updated), zap.Int("skipped", result.Skipped))
}

func seed(ctx context.Context, users userWriter, seeds []seedUser, reset bool, cost int, logr *zap.Logger) (seedResult, error) {
	var result seedResult
	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cost)
		if err != nil {
			return result, fmt.Errorf("hash password for %s: %w", s.Username, err)
		}
		name := s.Name
		user := &models.User{Username: s.Username, Name: &name, Role: s.Role, PasswordHash: string(hash)}
		if s.Role == models.RoleStaff && s.StaffCategory != "" {
			category := s.StaffCategory
			user.StaffCategory = &category
		}

		if reset {
			if err := users.Upsert(ctx, user); err != nil {
				return result, err
			}
			result.Updated++
			logr.Info("user upserted", zap.String("username", s.Username), zap.String("role", string(s.Role)))
			continue
		}

		created, err := users.Insert(ctx, user)
		if err != nil {
			return result, err
		}
		if !created {
			result.Skipped++
			logr.Info("user exists, skipped", zap.String("username", s.Username))
			continue
		}
		result.Created++
		logr.Info("user created", zap.String("username", s.Username), zap.String("role", string(s.Role)))
	}
	return result, nil
}
