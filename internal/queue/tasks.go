package queue

const (
	TypeTokenCleanup = "token:cleanup"
	TypeDeckRecount  = "deck:recount"
)

type DeckRecountPayload struct {
	DeckID string `json:"deck_id"`
}
