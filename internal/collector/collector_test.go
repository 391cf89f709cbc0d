package collector

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"compensa/internal"
	"compensa/internal/util"
)

func newSeq(domain internal.Domain) *Collector {
	c := New(domain)
	n := 0
	c.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return c
}

func TestAddValidIncrementsListAndTable(t *testing.T) {
	c := newSeq(internal.DomainIsolated)

	for i := 1; i <= 3; i++ {
		item, err := c.Add(RawFields{Quantity: fmt.Sprint(i), Group: "native", Municipality: "avare"})
		require.NoError(t, err)
		assert.Equal(t, internal.DomainIsolated, item.Domain)
		assert.Equal(t, i, c.Len())
		assert.Len(t, c.Rows(), i)
	}

	rows := c.Rows()
	assert.Equal(t, []string{"3", "native", "avare", "", ""}, rows[2].Cells)
	assert.Equal(t, 3, rows[2].Position)
}

func TestAddInvalidLeavesStateUnchanged(t *testing.T) {
	cases := []struct {
		name    string
		domain  internal.Domain
		raw     RawFields
		field   string
		message string
	}{
		{"zero quantity", internal.DomainIsolated, RawFields{Quantity: "0", Municipality: "avare"}, FieldQuantity, "Informe uma quantidade válida."},
		{"negative quantity", internal.DomainIsolated, RawFields{Quantity: "-2", Municipality: "avare"}, FieldQuantity, "Informe uma quantidade válida."},
		{"text quantity", internal.DomainIsolated, RawFields{Quantity: "abc", Municipality: "avare"}, FieldQuantity, "Informe uma quantidade válida."},
		{"tree checks quantity first", internal.DomainIsolated, RawFields{Quantity: "", Municipality: ""}, FieldQuantity, "Informe uma quantidade válida."},
		{"tree missing municipality", internal.DomainIsolated, RawFields{Quantity: "3"}, FieldMunicipality, "Selecione um município."},
		{"patch checks municipality first", internal.DomainPatch, RawFields{Area: "0"}, FieldMunicipality, "Selecione um município para o patch."},
		{"patch bad area", internal.DomainPatch, RawFields{Area: "0", Municipality: "avare"}, FieldArea, "Informe uma área válida em m² para o patch."},
		{"app missing municipality", internal.DomainApp, RawFields{Quantity: "1"}, FieldMunicipality, "Selecione um município."},
		{"app bad quantity", internal.DomainApp, RawFields{Quantity: "", Municipality: "avare"}, FieldQuantity, "Informe uma quantidade / área válida."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newSeq(tc.domain)
			_, err := c.Add(RawFields{Quantity: "1", Area: "1", Municipality: "seed"})
			require.NoError(t, err)

			_, err = c.Add(tc.raw)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.message, verr.Message)
			assert.Equal(t, 1, c.Len())
			assert.Len(t, c.Rows(), 1)
		})
	}
}

func TestAddMatchesListedMunicipality(t *testing.T) {
	c := newSeq(internal.DomainPatch)
	c.SetOptions([]string{"Avaré", "São Paulo", "avare", ""})
	assert.Equal(t, []string{"Avaré", "São Paulo"}, c.Options())

	item, err := c.Add(RawFields{Municipality: "sao paulo", Area: "12,5"})
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", item.Municipality)
	assert.Equal(t, 12.5, item.AreaM2)

	_, err = c.Add(RawFields{Municipality: "Avarre", Area: "1"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldMunicipality, verr.Field)
	assert.Equal(t, "Avaré", verr.Suggestion)
	assert.Equal(t, 1, c.Len())
}

func TestAddReadsCommaAsDecimalMark(t *testing.T) {
	c := newSeq(internal.DomainPatch)

	item, err := c.Add(RawFields{Municipality: "avare", Area: "1,500"})
	require.NoError(t, err)
	assert.Equal(t, 1.5, item.AreaM2)

	_, err = c.Add(RawFields{Municipality: "avare", Area: "1,500,000"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldArea, verr.Field)
	assert.Equal(t, 1, c.Len())
}

func TestRemoveAtUsesCurrentPosition(t *testing.T) {
	c := newSeq(internal.DomainApp)
	for _, m := range []string{"a", "b", "c", "d", "e"} {
		_, err := c.Add(RawFields{Municipality: m, Quantity: "1"})
		require.NoError(t, err)
	}

	// Delete "b", then the row now at position 1 is "c".
	require.True(t, c.RemoveAt(1))
	require.True(t, c.RemoveAt(1))
	names := []string{}
	for _, item := range c.Items() {
		names = append(names, item.Municipality)
	}
	assert.Equal(t, []string{"a", "d", "e"}, names)

	assert.False(t, c.RemoveAt(3))
	assert.False(t, c.RemoveAt(-1))
	assert.Equal(t, 3, c.Len())

	rows := c.Rows()
	for i, row := range rows {
		assert.Equal(t, i+1, row.Position)
		assert.Equal(t, names[i], row.Cells[0])
	}
}

func TestRemoveByIDAndSetResult(t *testing.T) {
	c := newSeq(internal.DomainIsolated)
	first, err := c.Add(RawFields{Quantity: "5", Group: "native", Municipality: "avare"})
	require.NoError(t, err)
	second, err := c.Add(RawFields{Quantity: "2", Group: "exotic", Municipality: "avare"})
	require.NoError(t, err)

	require.True(t, c.SetResult(second.ID, internal.ComputedResult{Unit: util.FloatPtr(3), Total: util.FloatPtr(6)}))
	require.True(t, c.Remove(first.ID))
	assert.False(t, c.Remove(first.ID))
	assert.False(t, c.SetResult(first.ID, internal.ComputedResult{}))
	assert.Equal(t, 0, c.PositionOf(second.ID))

	assert.Equal(t, []string{"2", "exotic", "avare", "3", "6"}, c.Rows()[0].Cells)

	items := c.Items()
	*items[0].Result.Unit = 99
	assert.Equal(t, "3", c.Rows()[0].Cells[3], "Items must return copies")
}

func TestRestoreKeepsOrderAndDomain(t *testing.T) {
	c := newSeq(internal.DomainPatch)
	c.Restore([]internal.LineItem{
		{ID: "p1", Domain: internal.DomainPatch, Municipality: "x", AreaM2: 10},
		{ID: "t1", Domain: internal.DomainIsolated, Municipality: "y", Quantity: 1},
		{Domain: internal.DomainPatch, Municipality: "z", AreaM2: 20},
	})

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, "id-1", items[1].ID)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestHeadersMatchCells(t *testing.T) {
	for _, d := range internal.Domains {
		item := internal.LineItem{Domain: d, Municipality: "m", Quantity: 1, AreaM2: 1}
		assert.Len(t, Cells(item), len(Headers(d)), string(d))
	}
}

func TestConcurrentAddKeepsEveryRow(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New(internal.DomainApp)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Add(RawFields{Quantity: fmt.Sprint(i + 1), Municipality: "Avaré"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
	seen := map[string]bool{}
	for _, item := range c.Items() {
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}
