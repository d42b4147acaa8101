//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"log/slog"
	"time"

	"market-chat/domain"
	"market-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IConversationRepository interface {
	CreateConversation(conversation domain.Conversation) error
	GetConversation(id string) (domain.Conversation, error)
}

type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) ConversationRepository {
	return ConversationRepository{db: db, log: log}
}

type diskConversation struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateConversation persists a conversation under "conv:{id}".
// A buyer opening a conversation on their own item is rejected here,
// mirroring the marketplace rule enforced at creation time.
func (c ConversationRepository) CreateConversation(conversation domain.Conversation) error {
	if conversation.BuyerID == conversation.SellerID {
		return errors.ErrSelfConversation
	}
	bytes, err := json.Marshal(fromDomainConversation(conversation))
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(conversationKey(conversation.ID)), bytes)
	})
}

// GetConversation looks up a conversation by id.
// Returns errors.ErrConversationNotFound on miss so callers can fail closed.
func (c ConversationRepository) GetConversation(id string) (domain.Conversation, error) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(conversationKey(id)))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, fmt.Errorf("%w: %s", errors.ErrConversationNotFound, id)
	}
	if err != nil {
		return domain.Conversation{}, err
	}

	var dc diskConversation
	if err = json.Unmarshal(raw, &dc); err != nil {
		return domain.Conversation{}, err
	}
	return toDomainConversation(dc), nil
}

func conversationKey(id string) string {
	return fmt.Sprintf("conv:%s", id)
}

func fromDomainConversation(c domain.Conversation) diskConversation {
	return diskConversation{
		ID:        c.ID,
		ItemID:    c.ItemID,
		BuyerID:   c.BuyerID,
		SellerID:  c.SellerID,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func toDomainConversation(dc diskConversation) domain.Conversation {
	return domain.Conversation{
		ID:        dc.ID,
		ItemID:    dc.ItemID,
		BuyerID:   dc.BuyerID,
		SellerID:  dc.SellerID,
		Status:    domain.ConversationStatus(dc.Status),
		CreatedAt: dc.CreatedAt.UTC(),
		UpdatedAt: dc.UpdatedAt.UTC(),
	}
}
