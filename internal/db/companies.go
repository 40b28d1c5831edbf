package db

import (
	"database/sql"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
	"github.com/Playtag-Media/boxfleet/internal/model"
)

func (s *pgStore) GetCompanyByID(id int) (model.Company, error) {
	var c model.Company
	err := s.db.Get(&c, `SELECT id, name, created_at FROM companies WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, apperr.NotFound("company", strconv.Itoa(id))
	}
	if err != nil {
		log.Error().Err(err).Int("company_id", id).Msg("failed to get company")
	}
	return c, err
}

func (s *pgStore) ListCompanies() ([]model.Company, error) {
	var out []model.Company
	err := s.db.Select(&out, `SELECT id, name, created_at FROM companies ORDER BY id`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list companies")
	}
	return out, err
}
