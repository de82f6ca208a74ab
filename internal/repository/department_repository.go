package repository

import (
	"context"

	"gorm.io/gorm"

	"eventhub/internal/model"
)

// DepartmentRepository defines persistence operations for departments.
type DepartmentRepository interface {
	FirstOrCreate(ctx context.Context, department *model.Department) error
	List(ctx context.Context) ([]model.Department, error)
}

type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) FirstOrCreate(ctx context.Context, department *model.Department) error {
	return r.db.WithContext(ctx).
		Where("name = ?", department.Name).
		FirstOrCreate(department).Error
}

func (r *departmentRepository) List(ctx context.Context) ([]model.Department, error) {
	var departments []model.Department
	if err := r.db.WithContext(ctx).Order("name").Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}
