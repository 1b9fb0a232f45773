package sync

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/meridianmaps/catalog-server/internal/config"
	sourcemocks "github.com/meridianmaps/catalog-server/internal/sources/mocks"
	"github.com/meridianmaps/catalog-server/internal/status"
)

func TestDefaultDataChangeDetector_IsDataChanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		loadStatus    *status.LoadStatus
		setupMocks    func(*sourcemocks.MockSourceHandlerFactory, *sourcemocks.MockSourceHandler)
		expectChanged bool
		expectError   bool
	}{
		{
			name:          "no status loads without probing the source",
			loadStatus:    nil,
			setupMocks:    func(*sourcemocks.MockSourceHandlerFactory, *sourcemocks.MockSourceHandler) {},
			expectChanged: true,
		},
		{
			name:          "no recorded hash loads without probing the source",
			loadStatus:    &status.LoadStatus{Phase: status.PhaseReady},
			setupMocks:    func(*sourcemocks.MockSourceHandlerFactory, *sourcemocks.MockSourceHandler) {},
			expectChanged: true,
		},
		{
			name:       "unchanged hash",
			loadStatus: &status.LoadStatus{LastLoadHash: "abc123"},
			setupMocks: func(f *sourcemocks.MockSourceHandlerFactory, h *sourcemocks.MockSourceHandler) {
				f.EXPECT().CreateHandler(config.SourceTypeStatic).Return(h, nil)
				h.EXPECT().CurrentHash(gomock.Any(), gomock.Any()).Return("abc123", nil)
			},
			expectChanged: false,
		},
		{
			name:       "changed hash",
			loadStatus: &status.LoadStatus{LastLoadHash: "abc123"},
			setupMocks: func(f *sourcemocks.MockSourceHandlerFactory, h *sourcemocks.MockSourceHandler) {
				f.EXPECT().CreateHandler(config.SourceTypeStatic).Return(h, nil)
				h.EXPECT().CurrentHash(gomock.Any(), gomock.Any()).Return("def456", nil)
			},
			expectChanged: true,
		},
		{
			name:       "handler creation failure reports changed",
			loadStatus: &status.LoadStatus{LastLoadHash: "abc123"},
			setupMocks: func(f *sourcemocks.MockSourceHandlerFactory, _ *sourcemocks.MockSourceHandler) {
				f.EXPECT().CreateHandler(gomock.Any()).Return(nil, errors.New("unsupported source type"))
			},
			expectChanged: true,
			expectError:   true,
		},
		{
			name:       "probe failure reports changed",
			loadStatus: &status.LoadStatus{LastLoadHash: "abc123"},
			setupMocks: func(f *sourcemocks.MockSourceHandlerFactory, h *sourcemocks.MockSourceHandler) {
				f.EXPECT().CreateHandler(gomock.Any()).Return(h, nil)
				h.EXPECT().CurrentHash(gomock.Any(), gomock.Any()).Return("", errors.New("connection refused"))
			},
			expectChanged: true,
			expectError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockFactory := sourcemocks.NewMockSourceHandlerFactory(ctrl)
			mockHandler := sourcemocks.NewMockSourceHandler(ctrl)
			tt.setupMocks(mockFactory, mockHandler)

			detector := &DefaultDataChangeDetector{sourceHandlerFactory: mockFactory}

			changed, err := detector.IsDataChanged(t.Context(), staticGroupConfig(), tt.loadStatus)
			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectChanged, changed)
		})
	}
}

func TestDefaultAutomaticRefreshChecker_IsIntervalRefreshNeeded(t *testing.T) {
	t.Parallel()

	now := time.Now()
	recent := now.Add(-time.Minute)
	stale := now.Add(-2 * time.Hour)

	tests := []struct {
		name          string
		groupPolicy   *config.RefreshPolicyConfig
		defaultPolicy *config.RefreshPolicyConfig
		loadStatus    *status.LoadStatus
		expectNeeded  bool
		expectNext    time.Time
		expectError   bool
	}{
		{
			name:       "no policy anywhere",
			loadStatus: &status.LoadStatus{LastAttempt: &stale},
		},
		{
			name:        "empty interval disables refresh",
			groupPolicy: &config.RefreshPolicyConfig{Interval: ""},
			loadStatus:  &status.LoadStatus{LastAttempt: &stale},
		},
		{
			name:          "default policy applies when the group has none",
			defaultPolicy: &config.RefreshPolicyConfig{Interval: "1h"},
			loadStatus:    &status.LoadStatus{LastAttempt: &stale},
			expectNeeded:  true,
			expectNext:    now.Add(time.Hour),
		},
		{
			name:          "group policy overrides the default",
			groupPolicy:   &config.RefreshPolicyConfig{Interval: "24h"},
			defaultPolicy: &config.RefreshPolicyConfig{Interval: "1m"},
			loadStatus:    &status.LoadStatus{LastAttempt: &stale},
			expectNeeded:  false,
			expectNext:    stale.Add(24 * time.Hour),
		},
		{
			name:        "malformed interval",
			groupPolicy: &config.RefreshPolicyConfig{Interval: "soon"},
			loadStatus:  &status.LoadStatus{LastAttempt: &stale},
			expectError: true,
		},
		{
			name:         "no attempt yet refreshes immediately",
			groupPolicy:  &config.RefreshPolicyConfig{Interval: "1h"},
			loadStatus:   &status.LoadStatus{},
			expectNeeded: true,
			expectNext:   now.Add(time.Hour),
		},
		{
			name:         "nil status refreshes immediately",
			groupPolicy:  &config.RefreshPolicyConfig{Interval: "1h"},
			loadStatus:   nil,
			expectNeeded: true,
			expectNext:   now.Add(time.Hour),
		},
		{
			name:         "interval elapsed",
			groupPolicy:  &config.RefreshPolicyConfig{Interval: "1h"},
			loadStatus:   &status.LoadStatus{LastAttempt: &stale},
			expectNeeded: true,
			expectNext:   now.Add(time.Hour),
		},
		{
			name:         "interval not yet elapsed",
			groupPolicy:  &config.RefreshPolicyConfig{Interval: "1h"},
			loadStatus:   &status.LoadStatus{LastAttempt: &recent},
			expectNeeded: false,
			expectNext:   recent.Add(time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker := &DefaultAutomaticRefreshChecker{DefaultPolicy: tt.defaultPolicy}

			groupCfg := staticGroupConfig()
			groupCfg.RefreshPolicy = tt.groupPolicy

			needed, next, err := checker.IsIntervalRefreshNeeded(groupCfg, tt.loadStatus)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectNeeded, needed)
			if tt.expectNext.IsZero() {
				assert.True(t, next.IsZero())
			} else {
				assert.WithinDuration(t, tt.expectNext, next, 5*time.Second)
			}
		})
	}
}
