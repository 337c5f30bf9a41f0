package importers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/Ulthran/ctbus-finance/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// OFX imports OFX/QFX bank and credit card exports for institutions
// that do not offer a usable CSV. Statement account IDs map to ledger
// accounts; unmapped statements are skipped with a warning.
type OFX struct {
	accounts map[string]string
	currency string
}

// NewOFX builds an importer from an account ID to ledger account map.
func NewOFX(accounts map[string]string) *OFX {
	return &OFX{accounts: accounts, currency: "USD"}
}

// Name implements Importer.
func (o *OFX) Name() string { return "ofx" }

// Identify reports whether the file parses as an OFX response.
func (o *OFX) Identify(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return false
	}
	_, err = ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	return err == nil
}

// Extract implements Importer.
func (o *OFX) Extract(_ context.Context, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ofx: %w", err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("ofx: failed to read file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("ofx: failed to parse file: %w", err)
	}

	var txns []model.Transaction
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			txns = append(txns, o.convertStatement(string(stmt.BankAcctFrom.AcctID), stmt.BankTranList.Transactions)...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			txns = append(txns, o.convertStatement(string(stmt.CCAcctFrom.AcctID), stmt.BankTranList.Transactions)...)
		}
	}
	return txns, nil
}

func (o *OFX) convertStatement(accountID string, stmtTxns []ofxgo.Transaction) []model.Transaction {
	account, ok := o.accounts[accountID]
	if !ok {
		slog.Warn("skipping ofx statement for unmapped account", "account_id", accountID)
		return nil
	}

	txns := make([]model.Transaction, 0, len(stmtTxns))
	for _, ofxTx := range stmtTxns {
		// OFX amounts are rationals, negative for debits. FloatString
		// renders the exact cent value without a binary float detour.
		value, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(model.CashPlaces))
		if err != nil {
			slog.Warn("skipping ofx transaction with bad amount", "amount", ofxTx.TrnAmt.String())
			continue
		}
		if value.IsZero() {
			continue
		}

		counter := "Income:Unknown"
		if value.IsNegative() {
			counter = "Expenses:Unknown"
		}

		amount := model.NewAmount(value, o.currency)
		txn := model.Transaction{
			Date:      ofxTx.DtPosted.Time,
			Narration: extractMerchantName(ofxTx),
			Postings: []model.Posting{
				model.NewPosting(account, amount),
				model.NewPosting(counter, amount.Neg()),
			},
		}
		if ofxTx.CheckNum != "" {
			txn.SetMeta("check_number", string(ofxTx.CheckNum))
		}
		txns = append(txns, txn)
	}
	return txns
}

// preprocessOFX fixes common formatting issues in real-world OFX files
// before handing them to the parser.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Mixed-case SEVERITY values (should be INFO, WARN, or ERROR).
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files sometimes drop the closing angle bracket on a
	// tag that ends its line.
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// extractMerchantName pulls the cleanest available description from an
// OFX transaction.
func extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " date fragments.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
