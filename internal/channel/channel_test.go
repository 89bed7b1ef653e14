package channel

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_alerts/internal/channel/mocks"
	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/shenikar/incident_alerts/internal/realtime"
	"github.com/shenikar/incident_alerts/internal/webhook"
	webhook_mocks "github.com/shenikar/incident_alerts/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testJob(severity models.Severity) models.NotificationJob {
	incident := &models.Incident{ID: 7, Category: models.CategorySecurity, Severity: severity, Description: "Break-in"}
	zone := models.WatchZone{ID: uuid.New(), Name: "Office"}
	return models.NewNotificationJob("user-1", incident, zone, []models.WatchZone{zone}, time.Now())
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

func TestInApp_SendsToast(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	job := testJob(models.SeverityHigh)

	// Ожидания
	notifier.EXPECT().
		SendToUser("user-1", gomock.Any()).
		Do(func(userID string, msg realtime.Message) {
			assert.Equal(t, realtime.MessageTypeToast, msg.Type)
			payload, ok := msg.Data.(ToastPayload)
			require.True(t, ok)
			assert.Equal(t, "Office", payload.ZoneName)
			assert.Equal(t, int64(7), payload.IncidentID)
		}).Return(1).Times(1)

	// Действие
	err := NewInApp(notifier).Deliver(context.Background(), job)

	// Проверки
	require.NoError(t, err)
}

func TestInApp_NoConnectedClient(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	// Ожидания
	notifier.EXPECT().SendToUser(gomock.Any(), gomock.Any()).Return(0).Times(1)

	// Действие
	err := NewInApp(notifier).Deliver(context.Background(), testJob(models.SeverityLow))

	// Проверки
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSystem_PermissionNotGrantedIsSilent(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	perms := mocks.NewMockPermissionChecker(ctrl)
	publisher := webhook_mocks.NewMockPushPublisher(ctrl)

	// Ожидания
	perms.EXPECT().SystemPermission(gomock.Any(), "user-1").Return(false, nil).Times(1)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	err := NewSystem(perms, publisher, quietLogger()).Deliver(context.Background(), testJob(models.SeverityHigh))

	// Проверки
	assert.NoError(t, err)
}

func TestSystem_PublishesWhenGranted(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	perms := mocks.NewMockPermissionChecker(ctrl)
	publisher := webhook_mocks.NewMockPushPublisher(ctrl)
	job := testJob(models.SeverityCritical)

	// Ожидания
	perms.EXPECT().SystemPermission(gomock.Any(), "user-1").Return(true, nil).Times(1)
	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, event webhook.PushEvent) {
			assert.Equal(t, job.Title, event.Title)
			assert.Equal(t, job.Zone.ID.String(), event.ZoneID)
		}).Return(nil).Times(1)

	// Действие
	err := NewSystem(perms, publisher, quietLogger()).Deliver(context.Background(), job)

	// Проверки
	assert.NoError(t, err)
}

func TestSystem_PublishFailure(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	perms := mocks.NewMockPermissionChecker(ctrl)
	publisher := webhook_mocks.NewMockPushPublisher(ctrl)

	// Ожидания
	perms.EXPECT().SystemPermission(gomock.Any(), gomock.Any()).Return(true, nil)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	// Действие
	err := NewSystem(perms, publisher, quietLogger()).Deliver(context.Background(), testJob(models.SeverityHigh))

	// Проверки
	assert.ErrorContains(t, err, "redis down")
}

func TestAudible_NoPlayerIsNoop(t *testing.T) {
	// Действие
	err := NewAudible(nil).Deliver(context.Background(), testJob(models.SeverityHigh))

	// Проверки
	assert.NoError(t, err)
}

func TestAudible_SoundBySeverity(t *testing.T) {
	// Подготовка
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)

	// Ожидания
	notifier.EXPECT().
		SendToUser("user-1", gomock.Any()).
		Do(func(_ string, msg realtime.Message) {
			assert.Equal(t, realtime.MessageTypeSoundCue, msg.Type)
			assert.Equal(t, SoundSiren, msg.Data.(SoundCuePayload).Sound)
		}).Return(0)

	// Действие
	// клиента нет - звук просто не проигрывается
	assert.NoError(t, NewAudible(notifier).Deliver(context.Background(), testJob(models.SeverityCritical)))
	// Проверки
	assert.Equal(t, SoundAlert, SoundFor(models.SeverityHigh))
	assert.Equal(t, SoundChime, SoundFor(models.SeverityMedium))
}

func TestEnabled(t *testing.T) {
	// Подготовка
	prefs := models.NotificationPreference{InApp: true, System: false, Audible: true}

	// Проверки
	assert.True(t, Enabled(prefs, models.ChannelInApp))
	assert.False(t, Enabled(prefs, models.ChannelSystem))
	assert.True(t, Enabled(prefs, models.ChannelAudible))
	assert.False(t, Enabled(prefs, models.ChannelKind("sms")))
}
