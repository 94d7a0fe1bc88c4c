package postgres

import (
	"github.com/ZubbsZubbs/LAUTECH-sub002/config"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the pool and, when enabled, applies migrations
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := RunMigrations(cfg.Database.URL(), logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositoryFactoryFromDB builds a factory over an existing pool
func NewRepositoryFactoryFromDB(db *DB, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, logger: logger}
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:          NewUserRepository(f.db, f.logger),
		Patients:       NewPatientRepository(f.db, f.logger),
		Doctors:        NewDoctorRepository(f.db, f.logger),
		Appointments:   NewAppointmentRepository(f.db, f.logger),
		Applications:   NewApplicationRepository(f.db, f.logger),
		Settings:       NewSettingRepository(f.db, f.logger),
		Subscribers:    NewSubscriberRepository(f.db, f.logger),
		PasswordResets: NewPasswordResetRepository(f.db, f.logger),
		DeliveryLogs:   NewDeliveryLogRepository(f.db, f.logger),
	}
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
