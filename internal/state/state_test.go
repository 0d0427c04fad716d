package state

import (
	"sync"
	"testing"

	"cardsmith/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	oldCards = []domain.Flashcard{{Question: "old", Answer: "old answer"}}
	newCards = []domain.Flashcard{{Question: "new", Answer: "new answer"}}
)

func TestReduce_GenerateLifecycle(t *testing.T) {
	s := State{InputText: "text", Cards: oldCards, Error: "previous", Prompt: "prompt"}

	s = Reduce(s, GenerateStarted{Token: 1})
	assert.True(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Empty(t, s.Prompt)
	assert.Equal(t, Token(1), s.Pending)
	assert.Equal(t, oldCards, s.Cards)

	s = Reduce(s, GenerateSucceeded{Token: 1, Cards: newCards})
	assert.False(t, s.Loading)
	assert.Equal(t, Token(0), s.Pending)
	assert.Equal(t, newCards, s.Cards)
	assert.Equal(t, "text", s.InputText)
}

func TestReduce_FailureKeepsCards(t *testing.T) {
	s := Reduce(State{Cards: oldCards}, GenerateStarted{Token: 3})
	s = Reduce(s, GenerateFailed{Token: 3, Err: "bad input"})

	assert.Equal(t, "bad input", s.Error)
	assert.False(t, s.Loading)
	assert.Equal(t, oldCards, s.Cards)
}

func TestReduce_StaleResultsAreIgnored(t *testing.T) {
	s := Reduce(State{Cards: oldCards}, GenerateStarted{Token: 1})
	s = Reduce(s, GenerateStarted{Token: 2})

	after := Reduce(s, GenerateSucceeded{Token: 1, Cards: newCards})
	assert.Equal(t, s, after)

	after = Reduce(s, GenerateFailed{Token: 1, Err: "late"})
	assert.Equal(t, s, after)

	after = Reduce(s, UploadSucceeded{Token: 1, Result: domain.UploadResult{Text: "x"}})
	assert.Equal(t, s, after)

	s = Reduce(s, GenerateSucceeded{Token: 2, Cards: newCards})
	assert.Equal(t, newCards, s.Cards)
	assert.False(t, s.Loading)
}

func TestReduce_Upload(t *testing.T) {
	t.Run("remote result replaces cards and clears text", func(t *testing.T) {
		s := Reduce(State{InputText: "typed"}, UploadStarted{Token: 1, FileName: "notes.pdf"})
		assert.Equal(t, "notes.pdf", s.FileName)
		assert.True(t, s.Loading)

		s = Reduce(s, UploadSucceeded{Token: 1, Result: domain.UploadResult{Cards: newCards}})
		assert.Equal(t, newCards, s.Cards)
		assert.Empty(t, s.InputText)
	})

	t.Run("local result fills the input text", func(t *testing.T) {
		s := Reduce(State{Cards: oldCards}, UploadStarted{Token: 1, FileName: "notes.pdf"})
		s = Reduce(s, UploadSucceeded{Token: 1, Result: domain.UploadResult{Text: "extracted"}})
		assert.Equal(t, "extracted", s.InputText)
		assert.Equal(t, oldCards, s.Cards)
	})

	t.Run("failure", func(t *testing.T) {
		s := Reduce(State{}, UploadStarted{Token: 1, FileName: "x.pdf"})
		s = Reduce(s, UploadFailed{Token: 1, Err: "Failed to process file"})
		assert.Equal(t, "Failed to process file", s.Error)
		assert.Equal(t, "x.pdf", s.FileName)
	})
}

func TestReduce_PromptAndText(t *testing.T) {
	s := Reduce(State{}, TextChanged{Text: "hello"})
	assert.Equal(t, "hello", s.InputText)

	s = Reduce(s, ValidationFailed{Message: "Provide text or upload a file."})
	assert.Equal(t, "Provide text or upload a file.", s.Prompt)
	assert.False(t, s.Loading)

	s = Reduce(s, PromptDismissed{})
	assert.Empty(t, s.Prompt)
}

func TestReduce_CardsAreCopied(t *testing.T) {
	cards := []domain.Flashcard{{Question: "q", Answer: "a"}}
	s := Reduce(Reduce(State{}, GenerateStarted{Token: 1}), GenerateSucceeded{Token: 1, Cards: cards})
	cards[0].Answer = "mutated"
	assert.Equal(t, "a", s.Cards[0].Answer)
}

func TestStore(t *testing.T) {
	store := NewStore(State{})

	var seen []State
	store.Subscribe(func(s State) { seen = append(seen, s) })

	tok := store.NextToken()
	store.Dispatch(GenerateStarted{Token: tok})
	store.Dispatch(GenerateSucceeded{Token: tok, Cards: newCards})

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.Equal(t, newCards, store.State().Cards)
}

func TestStore_ListenersRunOutsideLock(t *testing.T) {
	store := NewStore(State{})

	calls := 0
	store.Subscribe(func(s State) {
		calls++
		// Re-entrant access must not deadlock, and a listener added now
		// only sees later dispatches.
		assert.Equal(t, s, store.State())
		store.Subscribe(func(State) { calls += 100 })
	})

	store.Dispatch(TextChanged{Text: "first"})
	assert.Equal(t, 1, calls)

	store.Dispatch(TextChanged{Text: "second"})
	assert.Equal(t, 102, calls)
	assert.Equal(t, "second", store.State().InputText)
}

func TestStore_TokensAreUnique(t *testing.T) {
	store := NewStore(State{})
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		seen = map[Token]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := store.NextToken()
			mu.Lock()
			seen[tok] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}
