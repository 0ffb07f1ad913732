package ratios

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/catalog"
)

// ============================================================================
// MOCK STORES
// ============================================================================

type mockStores struct {
	company   catalog.Company
	catalogID int64
	noCatalog bool
	defs      []catalog.RatioDefinition

	// bindings maps component id to a bound account id; absent keys model a
	// missing mapping row, nil values model an unmapped component.
	bindings map[int64]*int64
	refs     map[int64]*catalog.SectorReference
	// amounts is keyed "account:year".
	amounts map[string]float64

	inserted []Result
	// persisted seeds values from other companies' batches; RatioValues
	// returns these plus whatever the current batch inserted.
	persisted   map[int64][]float64
	averages    map[int64]float64
	deleteCalls int
	deleteYears []int
}

func newMockStores() *mockStores {
	sectorID := int64(3)
	return &mockStores{
		company:   catalog.Company{ID: 1, Name: "Banco Austral", SectorID: &sectorID, SectorName: "Banca"},
		catalogID: 10,
		bindings:  make(map[int64]*int64),
		refs:      make(map[int64]*catalog.SectorReference),
		amounts:   make(map[string]float64),
		persisted: make(map[int64][]float64),
		averages:  make(map[int64]float64),
	}
}

func (m *mockStores) Company(ctx context.Context, companyID int64) (catalog.Company, error) {
	if companyID != m.company.ID {
		return catalog.Company{}, catalog.ErrNotFound
	}
	return m.company, nil
}

func (m *mockStores) CatalogID(ctx context.Context, companyID int64) (int64, error) {
	if m.noCatalog {
		return 0, catalog.ErrNoCatalog
	}
	return m.catalogID, nil
}

func (m *mockStores) Definitions(ctx context.Context) ([]catalog.RatioDefinition, error) {
	return m.defs, nil
}

func (m *mockStores) BoundAccountID(ctx context.Context, catalogID, componentID int64) (*int64, error) {
	return m.bindings[componentID], nil
}

func (m *mockStores) SectorReference(ctx context.Context, ratioID int64, sectorID *int64) (*catalog.SectorReference, error) {
	if sectorID == nil {
		return nil, nil
	}
	return m.refs[ratioID], nil
}

func (m *mockStores) Amount(ctx context.Context, accountID, companyID int64, year int) (*float64, error) {
	v, ok := m.amounts[amountKey(accountID, year)]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *mockStores) DeleteResults(ctx context.Context, companyID int64, years []int) error {
	m.deleteCalls++
	m.deleteYears = years
	m.inserted = nil
	return nil
}

func (m *mockStores) InsertResult(ctx context.Context, res Result) error {
	m.inserted = append(m.inserted, res)
	return nil
}

func (m *mockStores) RatioValues(ctx context.Context, ratioID int64) ([]float64, error) {
	values := append([]float64(nil), m.persisted[ratioID]...)
	for _, res := range m.inserted {
		if res.RatioID == ratioID {
			values = append(values, res.Value)
		}
	}
	return values, nil
}

func (m *mockStores) SetGlobalAverage(ctx context.Context, ratioID int64, avg float64) error {
	m.averages[ratioID] = avg
	return nil
}

func amountKey(accountID int64, year int) string {
	return fmt.Sprintf("%d:%d", accountID, year)
}

func (m *mockStores) bind(componentID, accountID int64) {
	id := accountID
	m.bindings[componentID] = &id
}

func def(id int64, name string, componentIDs ...int64) catalog.RatioDefinition {
	d := catalog.RatioDefinition{ID: id, Name: name, Category: "Liquidity", Formula: name}
	for i, cid := range componentIDs {
		d.Components = append(d.Components, catalog.RatioComponent{ID: cid, RatioID: id, Position: i + 1})
	}
	return d
}

func newEngine(m *mockStores) *Engine {
	e := NewEngine(m, m, m)
	e.WithNow(func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) })
	return e
}

func f(v float64) *float64 { return &v }

// ============================================================================
// TESTS
// ============================================================================

func TestCurrentRatioScenario(t *testing.T) {
	m := newMockStores()
	m.defs = []catalog.RatioDefinition{def(100, "Razón Corriente", 1, 2)}
	m.bind(1, 201) // current assets
	m.bind(2, 202) // current liabilities
	m.amounts[amountKey(201, 2022)] = 2255000.00
	m.amounts[amountKey(202, 2022)] = 8750000.00
	m.refs[100] = &catalog.SectorReference{RatioID: 100, SectorID: 3, OptimalValue: f(1.20)}

	result, err := newEngine(m).Run(context.Background(), 1, []int{2023, 2022}, nil, uuid.New())
	require.NoError(t, err)
	require.Empty(t, result.Error)
	require.Len(t, result.Ratios, 1)

	outcome := result.Ratios[0]
	assert.Equal(t, []int{2022, 2023}, result.Years)

	yv := outcome.ValuesByYear[2022]
	require.NotNil(t, yv)
	assert.Equal(t, 0.2577, yv.Value)
	assert.False(t, yv.AboveOptimal)

	// 2023 has no amounts: reported as null, not persisted.
	assert.Nil(t, outcome.ValuesByYear[2023])
	require.Len(t, m.inserted, 1)
	assert.Equal(t, 2022, m.inserted[0].Year)
}

func TestAcidTestThreeOperands(t *testing.T) {
	m := newMockStores()
	m.defs = []catalog.RatioDefinition{def(100, "Prueba Ácida", 1, 2, 3)}
	m.bind(1, 201)
	m.bind(2, 202)
	m.bind(3, 203)
	m.amounts[amountKey(201, 2022)] = 500
	m.amounts[amountKey(202, 2022)] = 100
	m.amounts[amountKey(203, 2022)] = 200

	result, err := newEngine(m).Run(context.Background(), 1, []int{2022}, nil, uuid.New())
	require.NoError(t, err)
	require.Len(t, result.Ratios, 1)
	require.NotNil(t, result.Ratios[0].ValuesByYear[2022])
	assert.Equal(t, 2.0, result.Ratios[0].ValuesByYear[2022].Value)
}

func TestThreeOperandsWrongNameNotComputable(t *testing.T) {
	m := newMockStores()
	m.defs = []catalog.RatioDefinition{def(100, "Margen Compuesto", 1, 2, 3)}
	m.bind(1, 201)
	m.bind(2, 202)
	m.bind(3, 203)
	for _, acc := range []int64{201, 202, 203} {
		m.amounts[amountKey(acc, 2022)] = 100
	}

	result, err := newEngine(m).Run(context.Background(), 1, []int{2022}, nil, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, result.Ratios)
	assert.Empty(t, m.inserted)
}

func TestZeroDivisorYieldsNull(t *testing.T) {
	m := newMockStores()
	m.defs = []catalog.RatioDefinition{def(100, "Razón Corriente", 1, 2)}
	m.bind(1, 201)
	m.bind(2, 202)
	m.amounts[amountKey(201, 2022)] = 1000
	m.amounts[amountKey(202, 2022)] = 0

	result, err := newEngine(m).Run(context.Background(), 1, []int{2022}, nil, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, result.Ratios)
	assert.Empty(t, m.inserted)
}

func TestUnmappedComponentDegradesToNull(t *testing.T) {
	m := newMockStores()
	m.defs = []catalog.RatioDefinition{
		def(100, "Razón Corriente", 1, 2),
		def(101, "Endeudamiento", 3, 4),
	}
	// Component 1 mapped but with no bound account, component 2 has no
	// mapping row at all. Ratio 101 fully configured.
	m.bindings[1] = nil
	m.bind(3, 203)
	m.bind(4, 204)
	m.amounts[amountKey(203, 2022)] = 300
	m.amounts[amountKey(204, 2022)] = 600

	result, err := newEngine(m).Run(context.Background(), 1, []int{2022}, nil, uuid.New())
	require.NoError(t, err)
	require.Len(t, result.Ratios, 1)
	assert.Equal(t, "Endeudamiento", result.Ratios[0].Name)
	assert.Equal(t, 0.5, result.Ratios[0].ValuesByYear[2022].Value)
}

func TestMissingBenchmarksCompareFalse(t *testing.T) {
	m := newMockStores()
	m.defs = []catalog.RatioDefinition{def(100, "Razón Corriente", 1, 2)}
	m.bind(1, 201)
	m.bind(2, 202)
	m.amounts[amountKey(201, 2022)] = 900
	m.amounts[amountKey(202, 2022)] = 300
	// No sector reference, no global average.

	result, err := newEngine(m).Run(context.Background(), 1, []int{2022}, nil, uuid.New())
	require.NoError(t, err)
	yv := result.Ratios[0].ValuesByYear[2022]
	require.NotNil(t, yv)
	assert.Equal(t, 3.0, yv.Value)
	assert.False(t, yv.AboveOptimal)
	assert.False(t, yv.AboveSectorAverage)
	assert.False(t, yv.AboveGlobalAverage)
}

func TestBenchmarksSnapshotAtComputationTime(t *testing.T) {
	m := newMockStores()
	prior := 1.5
	d := def(100, "Razón Corriente", 1, 2)
	d.GlobalAverage = &prior
	m.defs = []catalog.RatioDefinition{d}
	m.bind(1, 201)
	m.bind(2, 202)
	m.amounts[amountKey(201, 2022)] = 400
	m.amounts[amountKey(202, 2022)] = 200
	m.refs[100] = &catalog.SectorReference{RatioID: 100, SectorID: 3, OptimalValue: f(1.0), SectorAverage: f(2.5)}

	_, err := newEngine(m).Run(context.Background(), 1, []int{2022}, nil, uuid.New())
	require.NoError(t, err)
	require.Len(t, m.inserted, 1)
	row := m.inserted[0]
	// Persisted benchmark columns hold the values as of this computation,
	// even though the batch refreshes the global average afterwards.
	assert.Equal(t, 1.5, *row.GlobalAverage)
	assert.Equal(t, 1.0, *row.SectorOptimal)
	assert.Equal(t, 2.5, *row.SectorAverage)
	assert.True(t, row.AboveOptimal)
	assert.False(t, row.AboveSectorAverage)
	assert.True(t, row.AboveGlobalAverage)
	// The refreshed average reflects the newly persisted value.
	assert.Equal(t, 2.0, m.averages[100])
}

func TestNoCatalogIsNonFatal(t *testing.T) {
	m := newMockStores()
	m.noCatalog = true
	m.defs = []catalog.RatioDefinition{def(100, "Razón Corriente", 1, 2)}

	result, err := newEngine(m).Run(context.Background(), 1, []int{2022}, nil, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "company has no catalog configured", result.Error)
	assert.Empty(t, result.Ratios)
	assert.Zero(t, m.deleteCalls)
}

func TestBatchReplacesSnapshotAndIsIdempotent(t *testing.T) {
	m := newMockStores()
	m.defs = []catalog.RatioDefinition{def(100, "Razón Corriente", 1, 2)}
	m.bind(1, 201)
	m.bind(2, 202)
	m.amounts[amountKey(201, 2022)] = 2255000.00
	m.amounts[amountKey(202, 2022)] = 8750000.00

	engine := newEngine(m)
	user := int64(7)
	first, err := engine.Run(context.Background(), 1, []int{2022}, &user, uuid.New())
	require.NoError(t, err)
	firstRows := append([]Result(nil), m.inserted...)

	second, err := engine.Run(context.Background(), 1, []int{2022}, &user, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 2, m.deleteCalls)
	assert.Equal(t, []int{2022}, m.deleteYears)
	require.Len(t, m.inserted, 1)
	// Identical rows modulo batch id (timestamp is pinned by the test clock).
	assert.Equal(t, firstRows[0].Value, m.inserted[0].Value)
	assert.Equal(t, firstRows[0].AboveOptimal, m.inserted[0].AboveOptimal)
	assert.Equal(t, firstRows[0].ComputedBy, m.inserted[0].ComputedBy)
	assert.Equal(t, first.Ratios[0].ValuesByYear[2022].Value, second.Ratios[0].ValuesByYear[2022].Value)
}

func TestAveragesRefreshedForEveryRatioInCatalog(t *testing.T) {
	m := newMockStores()
	m.defs = []catalog.RatioDefinition{
		def(100, "Razón Corriente", 1, 2),
		def(101, "Rotación", 3, 4), // not computable for this company
	}
	m.bind(1, 201)
	m.bind(2, 202)
	m.amounts[amountKey(201, 2022)] = 300
	m.amounts[amountKey(202, 2022)] = 200
	// Ratio 101 already holds values persisted by other companies' batches.
	m.persisted[101] = []float64{1.0, 2.0, 4.0}

	_, err := newEngine(m).Run(context.Background(), 1, []int{2022}, nil, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1.5, m.averages[100])
	assert.Equal(t, Round4(7.0/3.0), m.averages[101])
}

func TestAverageMonotonicityUnderAddition(t *testing.T) {
	m := newMockStores()
	d := def(100, "Razón Corriente", 1, 2)
	m.defs = []catalog.RatioDefinition{d}
	m.persisted[100] = []float64{1.0, 2.0}

	updater := NewAverageUpdater(m)
	updates, err := updater.RefreshAll(context.Background(), m.defs)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, 1.5, updates[0].Updated)
	assert.Equal(t, 2, updates[0].Samples)

	m.persisted[100] = append(m.persisted[100], 4.0)
	updates, err = updater.RefreshAll(context.Background(), m.defs)
	require.NoError(t, err)
	assert.Equal(t, Round4(7.0/3.0), updates[0].Updated)
	assert.Equal(t, 3, updates[0].Samples)
}

func TestAverageUntouchedWithoutValues(t *testing.T) {
	m := newMockStores()
	m.defs = []catalog.RatioDefinition{def(100, "Razón Corriente", 1, 2)}

	updates, err := NewAverageUpdater(m).RefreshAll(context.Background(), m.defs)
	require.NoError(t, err)
	assert.Empty(t, updates)
	_, touched := m.averages[100]
	assert.False(t, touched)
}

func TestRoundingHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 0.0001, Round4(0.00005))
	assert.Equal(t, -0.0001, Round4(-0.00005))
	assert.Equal(t, 0.2577, Round4(2255000.0/8750000.0))
	assert.Equal(t, 0.2578, Round4(0.25775))
}

func TestResolveKind(t *testing.T) {
	assert.Equal(t, KindSimpleQuotient, ResolveKind(def(1, "Cualquiera", 1, 2)))
	assert.Equal(t, KindAcidTest, ResolveKind(def(1, "Prueba Ácida", 1, 2, 3)))
	// Two components always divide; the name only matters at three.
	assert.Equal(t, KindSimpleQuotient, ResolveKind(def(1, "Prueba Ácida", 1, 2)))
	assert.Equal(t, KindUnsupported, ResolveKind(def(1, "Otra", 1, 2, 3)))
	assert.Equal(t, KindUnsupported, ResolveKind(def(1, "Sin Componentes")))
	assert.Equal(t, KindUnsupported, ResolveKind(def(1, "Cuatro", 1, 2, 3, 4)))
}
