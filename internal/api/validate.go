package api

import (
	"fmt"
	"time"

	"cargonav/internal/model"
)

func validateOptimizeRequest(req *model.OptimizeRequest) error {
	if req.Snapshot == nil && req.Date == "" {
		return fmt.Errorf("either snapshot or date is required")
	}
	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD")
		}
	}
	if req.Generations < 0 {
		return fmt.Errorf("generations must be >= 0")
	}
	if req.TimeBudgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	return nil
}
