package repository

import "gorm.io/gorm"

// GormStore is the SQL-backed Store.
type GormStore struct {
	*TaskRepository
	*CategoryRepository
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		TaskRepository:     NewTaskRepository(db),
		CategoryRepository: NewCategoryRepository(db),
		db:                 db,
	}
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
