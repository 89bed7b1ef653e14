package service

import (
	"context"
	"fmt"

	"github.com/shenikar/incident_alerts/internal/channel"
	"github.com/shenikar/incident_alerts/internal/session"
)

type managerAdapter struct {
	m *session.Manager
}

// NewSessionManager приводит session.Manager к контракту сервиса
func NewSessionManager(m *session.Manager) SessionManager {
	return &managerAdapter{m: m}
}

func (a *managerAdapter) Open(userID string, setup func(session.Session)) (session.Session, error) {
	mon, err := a.m.Open(userID, func(mon *session.Monitor) {
		if setup != nil {
			setup(mon)
		}
	})
	if err != nil {
		return nil, err
	}
	return mon, nil
}

func (a *managerAdapter) Get(userID string) (session.Session, error) {
	mon, err := a.m.Get(userID)
	if err != nil {
		return nil, err
	}
	return mon, nil
}

func (a *managerAdapter) Close(userID string) error {
	return a.m.Close(userID)
}

type permissionChecker struct {
	settings SettingsRepository
}

// NewPermissionChecker читает разрешение на системные уведомления из настроек пользователя
func NewPermissionChecker(settings SettingsRepository) channel.PermissionChecker {
	return &permissionChecker{settings: settings}
}

func (p *permissionChecker) SystemPermission(ctx context.Context, userID string) (bool, error) {
	prefs, err := p.settings.NotificationPreferences(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("service: could not read notification preferences: %w", err)
	}
	return prefs.SystemPermission, nil
}
