package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/engine"
	"github.com/Veraticus/invoice-mapper/internal/engine/mocks"
	"github.com/Veraticus/invoice-mapper/internal/model"
)

const customer = "trattoria"

var menu = []string{"Margherita", "Tiramisu", "Espresso"}

type fixture struct {
	store     *mocks.MockStore
	completer *mocks.MockCompleter
	extractor *mocks.MockTextExtractor
	engine    *engine.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		store:     mocks.NewMockStore(ctrl),
		completer: mocks.NewMockCompleter(ctrl),
		extractor: mocks.NewMockTextExtractor(ctrl),
	}
	f.engine = engine.New(f.store, f.completer, f.extractor,
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRunIDGenerator(func() string { return "run-1" }),
	)
	return f
}

func (f *fixture) withList(items []string) {
	f.store.EXPECT().
		LoadReferenceList(gomock.Any(), customer).
		Return(model.ReferenceList{CustomerID: customer, Items: items}, nil).
		AnyTimes()
}

func TestEngine_Resolve_MemoryOverridesSuggestion(t *testing.T) {
	f := newFixture(t)
	f.withList(menu)
	f.store.EXPECT().
		LoadMappings(gomock.Any(), customer).
		Return(model.MappingMemory{"Tomatoes 5kg": model.StringPtr("Margherita")}, nil)

	f.completer.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req model.CompletionRequest) (string, error) {
			assert.Contains(t, req.System, `"Tomatoes 5kg": "Margherita"`)
			assert.Contains(t, req.System, `["Margherita", "Tiramisu", "Espresso"]`)
			assert.Contains(t, req.User, "2x Tomatoes 5kg")
			return `{"mapped_items":[
				{"invoice_item":"Tomatoes 5kg","suggested_item":"Tiramisu","quantity":2},
				{"invoice_item":"Espresso Beans 1kg","suggested_item":"Espresso"}
			]}`, nil
		})

	res, err := f.engine.ResolveText(context.Background(), customer, "2x Tomatoes 5kg\nEspresso Beans 1kg")
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, customer, res.CustomerID)
	require.Len(t, res.AutoConfirmed, 1)
	assert.Equal(t, "Tomatoes 5kg", res.AutoConfirmed[0].InvoiceItem)
	assert.Equal(t, "Margherita", res.AutoConfirmed[0].Suggestion())
	require.NotNil(t, res.AutoConfirmed[0].Quantity)
	assert.InDelta(t, 2.0, *res.AutoConfirmed[0].Quantity, 0)

	require.Len(t, res.NeedsReview, 1)
	assert.Equal(t, "Espresso Beans 1kg", res.NeedsReview[0].InvoiceItem)
	assert.Equal(t, "Espresso", res.NeedsReview[0].Suggestion())
}

func TestEngine_Resolve_NoListConfigured(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().
		LoadReferenceList(gomock.Any(), customer).
		Return(model.ReferenceList{CustomerID: customer}, nil).
		Times(2)

	_, err := f.engine.ResolveText(context.Background(), customer, "anything")
	assert.ErrorIs(t, err, common.ErrNoListConfigured)

	// No OCR or completion happens without a list.
	_, err = f.engine.ProcessDocument(context.Background(), customer, model.Document{Name: "inv.pdf", MediaType: model.MediaTypePDF})
	assert.ErrorIs(t, err, common.ErrNoListConfigured)
	assert.Equal(t, common.KindNoListConfigured, common.KindOf(err))
}

func TestEngine_Resolve_EmptyListIsConfigured(t *testing.T) {
	f := newFixture(t)
	f.withList([]string{})
	f.store.EXPECT().LoadMappings(gomock.Any(), customer).Return(model.MappingMemory{}, nil)
	f.completer.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req model.CompletionRequest) (string, error) {
			assert.Contains(t, req.System, "Reference list:\n[]")
			assert.NotContains(t, req.System, "Confirmed mappings:")
			return `{"mapped_items":[{"invoice_item":"Bleach","suggested_item":null}]}`, nil
		})

	res, err := f.engine.ResolveText(context.Background(), customer, "Bleach")
	require.NoError(t, err)
	assert.Empty(t, res.AutoConfirmed)
	require.Len(t, res.NeedsReview, 1)
	assert.False(t, res.NeedsReview[0].HasSuggestion())
}

func TestEngine_Resolve_MalformedCompletion(t *testing.T) {
	f := newFixture(t)
	f.withList(menu)
	f.store.EXPECT().LoadMappings(gomock.Any(), customer).Return(model.MappingMemory{}, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("Sorry, I cannot help with that.", nil)

	res, err := f.engine.ResolveText(context.Background(), customer, "2x Tomatoes")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedCompletion)

	var malformed *common.MalformedCompletionError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "Sorry, I cannot help with that.", malformed.Raw)
	assert.Empty(t, res.AutoConfirmed)
	assert.Empty(t, res.NeedsReview)
}

func TestEngine_Resolve_EmptyTextIsOCRFailure(t *testing.T) {
	f := newFixture(t)
	f.withList(menu)

	_, err := f.engine.ResolveText(context.Background(), customer, " \n ")
	assert.ErrorIs(t, err, common.ErrOCRFailure)
}

func TestEngine_Resolve_CompletionUnavailable(t *testing.T) {
	f := newFixture(t)
	f.withList(menu)
	f.store.EXPECT().LoadMappings(gomock.Any(), customer).Return(model.MappingMemory{}, nil)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("connection reset"))

	_, err := f.engine.ResolveText(context.Background(), customer, "2x Tomatoes")
	assert.ErrorIs(t, err, common.ErrCompletionUnavailable)
	assert.Equal(t, common.KindCompletion, common.KindOf(err))
}

func TestEngine_Resolve_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().
		LoadReferenceList(gomock.Any(), customer).
		Return(model.ReferenceList{}, common.Persistence("load list", errors.New("disk I/O error")))

	_, err := f.engine.ResolveText(context.Background(), customer, "2x Tomatoes")
	assert.ErrorIs(t, err, common.ErrPersistence)
}

func TestEngine_ProcessDocument(t *testing.T) {
	doc := model.Document{Name: "inv.png", MediaType: model.MediaTypePNG, Content: []byte("png")}

	t.Run("extracts then resolves", func(t *testing.T) {
		f := newFixture(t)
		f.withList(menu)
		gomock.InOrder(
			f.extractor.EXPECT().Extract(gomock.Any(), doc).Return(model.NewOCRPayload("Tiramisu tray"), nil),
			f.store.EXPECT().LoadMappings(gomock.Any(), customer).Return(model.MappingMemory{}, nil),
			f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
				Return(`{"mapped_items":[{"invoice_item":"Tiramisu tray","suggested_item":"Tiramisu"}]}`, nil),
		)

		res, err := f.engine.ProcessDocument(context.Background(), customer, doc)
		require.NoError(t, err)
		require.Len(t, res.NeedsReview, 1)
		assert.Equal(t, "Tiramisu", res.NeedsReview[0].Suggestion())
	})

	t.Run("extraction failure", func(t *testing.T) {
		f := newFixture(t)
		f.withList(menu)
		f.extractor.EXPECT().Extract(gomock.Any(), doc).Return(model.OCRPayload{}, errors.New("quota exceeded"))

		_, err := f.engine.ProcessDocument(context.Background(), customer, doc)
		assert.ErrorIs(t, err, common.ErrOCRFailure)
	})

	t.Run("no extractor", func(t *testing.T) {
		f := newFixture(t)
		f.withList(menu)
		e := engine.New(f.store, f.completer, nil)

		_, err := e.ProcessDocument(context.Background(), customer, doc)
		assert.ErrorIs(t, err, common.ErrOCRFailure)
	})
}

func TestEngine_InitializeCustomer(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().ReplaceReferenceList(gomock.Any(), customer, menu).Return(nil)

	require.NoError(t, f.engine.InitializeCustomer(context.Background(), customer, menu))

	err := f.engine.InitializeCustomer(context.Background(), customer, nil)
	assert.ErrorIs(t, err, common.ErrInvalidList)

	err = f.engine.InitializeCustomer(context.Background(), "  ", menu)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestEngine_ApplyDecision(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().SaveMapping(gomock.Any(), customer, "Bleach", gomock.Nil()).Return(nil)
	f.store.EXPECT().SaveMapping(gomock.Any(), customer, "Tomatoes 5kg", model.StringPtr("Margherita")).Return(nil)

	ctx := context.Background()
	require.NoError(t, f.engine.ApplyDecision(ctx, customer, "Bleach", nil))
	require.NoError(t, f.engine.ApplyDecision(ctx, customer, "Tomatoes 5kg", model.StringPtr("Margherita")))

	assert.ErrorIs(t, f.engine.ApplyDecision(ctx, customer, "", nil), common.ErrInvalidInput)
}

func TestEngine_Decide(t *testing.T) {
	item := model.MappedItem{InvoiceItem: "Mascarpone Dessert", SuggestedItem: model.StringPtr("Margherita")}

	tests := []struct {
		name      string
		decision  model.Decision
		expect    func(f *fixture)
		wantState model.ReviewState
		wantErr   error
	}{
		{
			name:     "confirm saves the suggestion",
			decision: model.Confirm(),
			expect: func(f *fixture) {
				f.store.EXPECT().SaveMapping(gomock.Any(), customer, "Mascarpone Dessert", model.StringPtr("Margherita")).Return(nil)
			},
			wantState: model.ReviewConfirmed,
		},
		{
			name:     "correct saves the chosen list item",
			decision: model.Correct("Tiramisu"),
			expect: func(f *fixture) {
				f.withList(menu)
				f.store.EXPECT().SaveMapping(gomock.Any(), customer, "Mascarpone Dessert", model.StringPtr("Tiramisu")).Return(nil)
			},
			wantState: model.ReviewCorrected,
		},
		{
			name:     "correct to an item off the list is rejected without a write",
			decision: model.Correct("Nonexistent Dish"),
			expect: func(f *fixture) {
				f.withList(menu)
			},
			wantState: model.ReviewPending,
			wantErr:   common.ErrRetrySelection,
		},
		{
			name:     "correct is case sensitive",
			decision: model.Correct("tiramisu"),
			expect: func(f *fixture) {
				f.withList(menu)
			},
			wantState: model.ReviewPending,
			wantErr:   common.ErrRetrySelection,
		},
		{
			name:     "mark no match saves null",
			decision: model.MarkNoMatch(),
			expect: func(f *fixture) {
				f.store.EXPECT().SaveMapping(gomock.Any(), customer, "Mascarpone Dessert", gomock.Nil()).Return(nil)
			},
			wantState: model.ReviewMarkedNoMatch,
		},
		{
			name:      "skip writes nothing",
			decision:  model.Skip(),
			expect:    func(*fixture) {},
			wantState: model.ReviewSkipped,
		},
		{
			name:      "unknown decision",
			decision:  model.Decision{Kind: "approve"},
			expect:    func(*fixture) {},
			wantState: model.ReviewPending,
			wantErr:   common.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.expect(f)

			state, err := f.engine.Decide(context.Background(), customer, item, tt.decision)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, state)
		})
	}
}

func TestEngine_Review_RetriesRejectedCorrection(t *testing.T) {
	f := newFixture(t)
	f.withList(menu)
	reviewer := mocks.NewMockReviewer(gomock.NewController(t))

	items := []model.MappedItem{
		{InvoiceItem: "Mascarpone Dessert", SuggestedItem: model.StringPtr("Margherita")},
		{InvoiceItem: "Bleach"},
	}

	gomock.InOrder(
		reviewer.EXPECT().Decide(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req model.ReviewRequest) (model.Decision, error) {
				assert.Equal(t, 1, req.Position)
				assert.Equal(t, 2, req.Total)
				assert.Equal(t, menu, req.ReferenceList)
				assert.NoError(t, req.Rejected)
				return model.Correct("Nonexistent Dish"), nil
			}),
		reviewer.EXPECT().Decide(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req model.ReviewRequest) (model.Decision, error) {
				assert.Equal(t, "Mascarpone Dessert", req.Item.InvoiceItem)
				assert.ErrorIs(t, req.Rejected, common.ErrRetrySelection)
				return model.Correct("Tiramisu"), nil
			}),
		f.store.EXPECT().SaveMapping(gomock.Any(), customer, "Mascarpone Dessert", model.StringPtr("Tiramisu")).Return(nil),
		reviewer.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(model.Skip(), nil),
	)

	stats, err := f.engine.Review(context.Background(), customer, items, reviewer)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStats{Corrected: 1, Skipped: 1, Rejected: 1}, stats)
	assert.Equal(t, 1, stats.Written())
	assert.Equal(t, 2, stats.Total())
}

func TestEngine_Review_StopsOnReviewerError(t *testing.T) {
	f := newFixture(t)
	f.withList(menu)
	reviewer := mocks.NewMockReviewer(gomock.NewController(t))

	items := []model.MappedItem{
		{InvoiceItem: "Bleach"},
		{InvoiceItem: "Napkins"},
	}

	gomock.InOrder(
		reviewer.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(model.MarkNoMatch(), nil),
		f.store.EXPECT().SaveMapping(gomock.Any(), customer, "Bleach", gomock.Nil()).Return(nil),
		reviewer.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(model.Decision{}, io.EOF),
	)

	stats, err := f.engine.Review(context.Background(), customer, items, reviewer)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, stats.MarkedNoMatch)
}

func TestEngine_Review_NothingToReview(t *testing.T) {
	f := newFixture(t)
	reviewer := mocks.NewMockReviewer(gomock.NewController(t))

	stats, err := f.engine.Review(context.Background(), customer, nil, reviewer)
	require.NoError(t, err)
	assert.Zero(t, stats.Total())
}
