// Package cart defines the immutable cart snapshot consumed by the
// pricing engine. Lines are plain values: the authoritative price and
// category come from the catalog at the time the snapshot is built, and
// a snapshot is never mutated once handed to the calculator.
package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidLine is returned when a cart line is malformed (missing
// product, non-positive price or quantity). Malformed lines are rejected
// before any pricing computation runs.
var ErrInvalidLine = errors.New("invalid cart line")

// Line is one entry of a cart snapshot.
type Line struct {
	ProductID  string
	CategoryID string
	Price      decimal.Decimal
	Quantity   int
	Size       string
}

// Amount returns price × quantity for the line, before any discount.
func (l Line) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Validate checks the line is well formed. A zero price is treated as
// missing: the catalog owns prices and never produces free lines.
func (l Line) Validate() error {
	if l.ProductID == "" {
		return errors.Wrap(ErrInvalidLine, "product id required")
	}
	if l.Quantity <= 0 {
		return errors.Wrapf(ErrInvalidLine, "quantity must be greater than 0 for product %s", l.ProductID)
	}
	if !l.Price.IsPositive() {
		return errors.Wrapf(ErrInvalidLine, "price missing or not positive for product %s", l.ProductID)
	}
	return nil
}

// ValidateLines validates every line, failing on the first malformed one.
func ValidateLines(lines []Line) error {
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Signature returns a stable fingerprint of the cart contents plus the
// applied coupon code. Two snapshots with identical lines (in order) and
// coupon produce the same signature, so a stale in-flight computation
// can be detected and discarded when a newer snapshot supersedes it.
func Signature(lines []Line, couponCode string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.ProductID)
		b.WriteByte('|')
		b.WriteString(l.CategoryID)
		b.WriteByte('|')
		b.WriteString(l.Price.String())
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(l.Quantity))
		b.WriteByte('|')
		b.WriteString(l.Size)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "coupon:%s", strings.ToUpper(couponCode))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
