package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jswalia/karigar/internal/ledger"
)

// transactionDoc is the bson shape of a transaction. Weights and amounts are
// stored as Decimal128 to keep the three-decimal-place semantics exact.
type transactionDoc struct {
	ID             string              `bson:"_id"`
	TxnID          string              `bson:"transactionId"`
	Date           string              `bson:"date"`
	Time           string              `bson:"time"`
	OwnerID        string              `bson:"ownerId"`
	OwnerName      string              `bson:"ownerName,omitempty"`
	Items          []itemDoc           `bson:"items"`
	Total          totalDoc            `bson:"total"`
	GoldBar        *goldBarDoc         `bson:"goldBar,omitempty"`
	ClosingBalance *closingBalanceDoc  `bson:"closingBalance,omitempty"`
	Notes          string              `bson:"notes,omitempty"`
	CreatedBy      string              `bson:"createdBy,omitempty"`
	CreatedByName  string              `bson:"createdByName,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt"`
	UpdatedAt      *time.Time          `bson:"updatedAt,omitempty"`
}

type itemDoc struct {
	Description string               `bson:"description"`
	Pcs         int64                `bson:"pcs"`
	NetWt       primitive.Decimal128 `bson:"netWt"`
	AddWt       primitive.Decimal128 `bson:"addWt"`
	InchIbr     primitive.Decimal128 `bson:"inchIbr"`
	Gold        primitive.Decimal128 `bson:"gold"`
}

type totalDoc struct {
	Pcs     int64                `bson:"pcs"`
	NetWt   primitive.Decimal128 `bson:"netWt"`
	InchIbr primitive.Decimal128 `bson:"inchIbr"`
	Gold    primitive.Decimal128 `bson:"gold"`
}

type goldBarDoc struct {
	Weight primitive.Decimal128 `bson:"weight"`
	Amount primitive.Decimal128 `bson:"amount"`
}

type closingBalanceDoc struct {
	Gold primitive.Decimal128 `bson:"gold"`
	Cash primitive.Decimal128 `bson:"cash"`
}

func toDec128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDec128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func toDoc(txn *ledger.Transaction) (*transactionDoc, error) {
	doc := &transactionDoc{
		ID:            txn.ID.String(),
		TxnID:         txn.TxnID,
		Date:          txn.Date,
		Time:          txn.Time,
		OwnerID:       txn.OwnerID.String(),
		OwnerName:     txn.OwnerName,
		Notes:         txn.Notes,
		CreatedBy:     txn.CreatedBy,
		CreatedByName: txn.CreatedByName,
		CreatedAt:     txn.CreatedAt,
		UpdatedAt:     txn.UpdatedAt,
	}

	var err error

	doc.Items = make([]itemDoc, len(txn.Items))
	for i, it := range txn.Items {
		if doc.Items[i], err = itemToDoc(it); err != nil {
			return nil, err
		}
	}

	if doc.Total, err = totalToDoc(txn.Total); err != nil {
		return nil, err
	}

	if txn.GoldBar != nil {
		bar := goldBarDoc{}
		if bar.Weight, err = toDec128(txn.GoldBar.Weight); err != nil {
			return nil, fmt.Errorf("encoding gold bar weight: %w", err)
		}

		if bar.Amount, err = toDec128(txn.GoldBar.Amount); err != nil {
			return nil, fmt.Errorf("encoding gold bar amount: %w", err)
		}

		doc.GoldBar = &bar
	}

	if txn.ClosingBalance != nil {
		cb := closingBalanceDoc{}
		if cb.Gold, err = toDec128(txn.ClosingBalance.Gold); err != nil {
			return nil, fmt.Errorf("encoding closing gold balance: %w", err)
		}

		if cb.Cash, err = toDec128(txn.ClosingBalance.Cash); err != nil {
			return nil, fmt.Errorf("encoding closing cash balance: %w", err)
		}

		doc.ClosingBalance = &cb
	}

	return doc, nil
}

func fromDoc(doc *transactionDoc) (*ledger.Transaction, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing transaction id %q: %w", doc.ID, err)
	}

	ownerID, err := uuid.Parse(doc.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("parsing owner id %q: %w", doc.OwnerID, err)
	}

	txn := &ledger.Transaction{
		ID:            id,
		TxnID:         doc.TxnID,
		Date:          doc.Date,
		Time:          doc.Time,
		OwnerID:       ownerID,
		OwnerName:     doc.OwnerName,
		Notes:         doc.Notes,
		CreatedBy:     doc.CreatedBy,
		CreatedByName: doc.CreatedByName,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}

	txn.Items = make([]ledger.Item, len(doc.Items))
	for i, it := range doc.Items {
		if txn.Items[i], err = itemFromDoc(it); err != nil {
			return nil, err
		}
	}

	if txn.Total, err = totalFromDoc(doc.Total); err != nil {
		return nil, err
	}

	if doc.GoldBar != nil {
		bar := ledger.GoldBar{}
		if bar.Weight, err = fromDec128(doc.GoldBar.Weight); err != nil {
			return nil, fmt.Errorf("decoding gold bar weight: %w", err)
		}

		if bar.Amount, err = fromDec128(doc.GoldBar.Amount); err != nil {
			return nil, fmt.Errorf("decoding gold bar amount: %w", err)
		}

		txn.GoldBar = &bar
	}

	if doc.ClosingBalance != nil {
		cb := ledger.ClosingBalance{}
		if cb.Gold, err = fromDec128(doc.ClosingBalance.Gold); err != nil {
			return nil, fmt.Errorf("decoding closing gold balance: %w", err)
		}

		if cb.Cash, err = fromDec128(doc.ClosingBalance.Cash); err != nil {
			return nil, fmt.Errorf("decoding closing cash balance: %w", err)
		}

		txn.ClosingBalance = &cb
	}

	return txn, nil
}

func itemToDoc(it ledger.Item) (itemDoc, error) {
	doc := itemDoc{Description: it.Description, Pcs: it.Pcs}

	var err error

	if doc.NetWt, err = toDec128(it.NetWt); err != nil {
		return doc, fmt.Errorf("encoding item net weight: %w", err)
	}

	if doc.AddWt, err = toDec128(it.AddWt); err != nil {
		return doc, fmt.Errorf("encoding item add weight: %w", err)
	}

	if doc.InchIbr, err = toDec128(it.InchIbr); err != nil {
		return doc, fmt.Errorf("encoding item inch/ibr: %w", err)
	}

	if doc.Gold, err = toDec128(it.Gold); err != nil {
		return doc, fmt.Errorf("encoding item gold: %w", err)
	}

	return doc, nil
}

func itemFromDoc(doc itemDoc) (ledger.Item, error) {
	it := ledger.Item{Description: doc.Description, Pcs: doc.Pcs}

	var err error

	if it.NetWt, err = fromDec128(doc.NetWt); err != nil {
		return it, fmt.Errorf("decoding item net weight: %w", err)
	}

	if it.AddWt, err = fromDec128(doc.AddWt); err != nil {
		return it, fmt.Errorf("decoding item add weight: %w", err)
	}

	if it.InchIbr, err = fromDec128(doc.InchIbr); err != nil {
		return it, fmt.Errorf("decoding item inch/ibr: %w", err)
	}

	if it.Gold, err = fromDec128(doc.Gold); err != nil {
		return it, fmt.Errorf("decoding item gold: %w", err)
	}

	return it, nil
}

func totalToDoc(t ledger.Total) (totalDoc, error) {
	doc := totalDoc{Pcs: t.Pcs}

	var err error

	if doc.NetWt, err = toDec128(t.NetWt); err != nil {
		return doc, fmt.Errorf("encoding total net weight: %w", err)
	}

	if doc.InchIbr, err = toDec128(t.InchIbr); err != nil {
		return doc, fmt.Errorf("encoding total inch/ibr: %w", err)
	}

	if doc.Gold, err = toDec128(t.Gold); err != nil {
		return doc, fmt.Errorf("encoding total gold: %w", err)
	}

	return doc, nil
}

func totalFromDoc(doc totalDoc) (ledger.Total, error) {
	t := ledger.Total{Pcs: doc.Pcs}

	var err error

	if t.NetWt, err = fromDec128(doc.NetWt); err != nil {
		return t, fmt.Errorf("decoding total net weight: %w", err)
	}

	if t.InchIbr, err = fromDec128(doc.InchIbr); err != nil {
		return t, fmt.Errorf("decoding total inch/ibr: %w", err)
	}

	if t.Gold, err = fromDec128(doc.Gold); err != nil {
		return t, fmt.Errorf("decoding total gold: %w", err)
	}

	return t, nil
}
