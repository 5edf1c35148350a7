package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandwatch/internal/models"
	"brandwatch/pkg/pipeline"
	"brandwatch/pkg/store"
)

type lenEncoder struct{}

func (lenEncoder) Encode(_ context.Context, image []byte) ([]float64, error) {
	return []float64{float64(len(image))}, nil
}

func TestStoreService(t *testing.T) {
	st, err := store.Open(t.TempDir(), lenEncoder{})
	require.NoError(t, err)
	require.NoError(t, st.Admit(context.Background(), "chase",
		[]string{"chase.com"}, [][]byte{[]byte("logo-1"), []byte("logo-2")}))
	require.NoError(t, st.Admit(context.Background(), "paypal",
		[]string{"paypal.com"}, [][]byte{[]byte("logo-3")}))

	svc := NewStoreService(st)

	brands := svc.ListBrands()
	require.Len(t, brands, 2)
	assert.Equal(t, "chase", brands[0].Name)
	assert.Equal(t, 2, brands[0].LogoCount)
	assert.Equal(t, "paypal", brands[1].Name)

	info, ok := svc.GetBrand("chase")
	require.True(t, ok)
	assert.Equal(t, []string{"chase.com"}, info.Domains)
	assert.Equal(t, 2, info.LogoCount)

	_, ok = svc.GetBrand("unknown")
	assert.False(t, ok)
}

func TestRecordOutcome(t *testing.T) {
	out := &pipeline.Outcome{
		URL:               "https://newbank-verify.evil",
		Category:          pipeline.CategoryPhishing,
		Target:            "newbank",
		HasLogo:           true,
		BrandInTargetList: false,
		FoundKnowledge:    true,
		DiscoveryBranch:   "success_logo2brand",
		Runtime: pipeline.RuntimeBreakdown{
			Detector:         500 * time.Millisecond,
			Discovery:        3 * time.Second,
			InteractionAlgo:  time.Second,
			InteractionTotal: 2 * time.Second,
		},
		Interaction: pipeline.InteractionFlags{Success: true},
	}

	ev := &models.Evaluation{UUID: "id-1", URL: out.URL}
	RecordOutcome(ev, out)

	assert.Equal(t, 1, ev.Category)
	assert.Equal(t, "newbank", ev.Target)
	assert.True(t, ev.HasLogo)
	assert.True(t, ev.FoundKnowledge)
	assert.Equal(t, "success_logo2brand", ev.DiscoveryBranch)
	assert.Equal(t, 0.5, ev.DetectorSecs)
	assert.Equal(t, 3.0, ev.DiscoverySecs)
	assert.Equal(t, 1.0, ev.InteractAlgoSecs)
	assert.Equal(t, 2.0, ev.InteractTotalSecs)
	assert.True(t, ev.InteractSuccess)
	assert.False(t, ev.RedirectEvasion)
}
