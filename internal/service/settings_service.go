package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"
	"github.com/OskolkovOleg/sklad-monitoring/internal/model"
	"github.com/OskolkovOleg/sklad-monitoring/internal/repository"
)

var ErrInvalidSettings = errors.New("invalid settings")

type SettingsService interface {
	Get(ctx context.Context) (*dto.SettingsResponse, error)
	Update(ctx context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

type settingsService struct {
	repo        repository.SettingsRepository
	companyName string
}

func NewSettingsService(repo repository.SettingsRepository, companyName string) SettingsService {
	return &settingsService{repo: repo, companyName: companyName}
}

func mapSettings(s model.Settings) dto.SettingsResponse {
	return dto.SettingsResponse{
		CompanyName:         s.CompanyName,
		SystemLanguage:      s.SystemLanguage,
		Timezone:            s.Timezone,
		EmailNotifications:  s.EmailNotifications,
		LowStockAlerts:      s.LowStockAlerts,
		CriticalStockAlerts: s.CriticalStockAlerts,
		AlertEmail:          s.AlertEmail,
		AlertThreshold:      s.AlertThreshold,
		DefaultView:         s.DefaultView,
		ShowPercentages:     s.ShowPercentages,
		CompactMode:         s.CompactMode,
		RedThreshold:        s.RedThreshold,
		YellowThreshold:     s.YellowThreshold,
		AutoRefresh:         s.AutoRefresh,
		RefreshInterval:     s.RefreshInterval,
		UpdatedAt:           s.UpdatedAt,
	}
}

func (s *settingsService) Get(ctx context.Context) (*dto.SettingsResponse, error) {
	st, err := s.repo.Get(ctx, model.DefaultSettings(s.companyName))
	if err != nil {
		return nil, err
	}
	resp := mapSettings(*st)
	return &resp, nil
}

func (s *settingsService) Update(ctx context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	st, err := s.repo.Get(ctx, model.DefaultSettings(s.companyName))
	if err != nil {
		return nil, err
	}

	setString(&st.CompanyName, req.CompanyName)
	setString(&st.SystemLanguage, req.SystemLanguage)
	setString(&st.Timezone, req.Timezone)
	setString(&st.DefaultView, req.DefaultView)
	setBool(&st.EmailNotifications, req.EmailNotifications)
	setBool(&st.LowStockAlerts, req.LowStockAlerts)
	setBool(&st.CriticalStockAlerts, req.CriticalStockAlerts)
	setBool(&st.ShowPercentages, req.ShowPercentages)
	setBool(&st.CompactMode, req.CompactMode)
	setBool(&st.AutoRefresh, req.AutoRefresh)
	setInt(&st.AlertThreshold, req.AlertThreshold)
	setInt(&st.RedThreshold, req.RedThreshold)
	setInt(&st.YellowThreshold, req.YellowThreshold)
	setInt(&st.RefreshInterval, req.RefreshInterval)
	if req.AlertEmail != nil {
		if *req.AlertEmail == "" {
			st.AlertEmail = nil
		} else {
			st.AlertEmail = req.AlertEmail
		}
	}

	if st.YellowThreshold >= st.RedThreshold {
		return nil, fmt.Errorf("%w: yellow_threshold %d must be below red_threshold %d",
			ErrInvalidSettings, st.YellowThreshold, st.RedThreshold)
	}

	if err := s.repo.Save(ctx, st); err != nil {
		return nil, err
	}
	resp := mapSettings(*st)
	return &resp, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
