package kafka

import (
	"testing"

	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/stretchr/testify/require"
)

func TestUnwrapPayload(t *testing.T) {
	env := skips.Envelope{
		EventType: skips.EventCatalogInvalidated,
		Payload:   MustMarshal(skips.CatalogInvalidatedPayload{Postcode: "NR32", Area: "Lowestoft"}),
	}
	p, err := UnwrapPayload[skips.CatalogInvalidatedPayload](env.Payload)
	require.NoError(t, err)
	require.Equal(t, "NR32", p.Postcode)
	require.Equal(t, "Lowestoft", p.Area)

	_, err = UnwrapPayload[skips.CatalogInvalidatedPayload]([]byte(`[1,2]`))
	require.Error(t, err)
}

func TestMustMarshalPanicsOnUnsupported(t *testing.T) {
	require.Panics(t, func() { MustMarshal(make(chan int)) })
}
