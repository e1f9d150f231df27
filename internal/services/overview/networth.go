package overview

import (
	"sort"
	"time"

	"github.com/networth-app/networth/internal/models"
)

// taggedTransaction is a flattened transaction carrying its owning
// account's asset/liability classification.
type taggedTransaction struct {
	amount float64
	date   string
	asset  bool
}

// DeriveNetWorth reconstructs a net-worth history from the aggregated
// institutions. It is a pure function of its inputs.
//
// Today's net worth is the signed sum of current balances: depository and
// investment balances add, credit and loan balances subtract. The history
// is then rebuilt by walking every transaction backward from today,
// reversing each one's effect on its account balance to recover the value
// immediately before it occurred. When several transactions share a date,
// only the value after reversing all of them is kept for that date.
//
// This assumes each transaction's amount fully explains the balance change
// it caused. Fees, transfers, and non-transactional accruals are not
// modeled, so older points accumulate drift. That approximation is part of
// the contract, not a defect to correct here.
//
// The returned series is ascending by date and always ends with a single
// point for today. Institutions that failed with a reauth error contribute
// no accounts and no transactions.
func DeriveNetWorth(institutions []models.InstitutionOverview, today string) []models.NetWorthPoint {
	var current float64
	var flattened []taggedTransaction

	for _, inst := range institutions {
		for _, acct := range inst.Accounts {
			asset := acct.Type.IsAsset()
			if asset {
				current += acct.CurrentBalance
			} else {
				current -= acct.CurrentBalance
			}
			for _, txn := range acct.Transactions {
				flattened = append(flattened, taggedTransaction{
					amount: txn.Amount,
					date:   txn.Date,
					asset:  asset,
				})
			}
		}
	}

	todaysValue := current

	// Most recent first. Dates are "YYYY-MM-DD", so the lexical order is
	// the chronological order.
	sort.SliceStable(flattened, func(i, j int) bool {
		return flattened[i].date > flattened[j].date
	})

	points := make([]models.NetWorthPoint, 0, len(flattened)+1)
	for _, txn := range flattened {
		// Reverse the transaction to recover the value before it
		// occurred: an amount that raised an asset balance is taken
		// back out, one that raised a liability is added back.
		if txn.asset {
			current -= txn.amount
		} else {
			current += txn.amount
		}

		if n := len(points); n > 0 && points[n-1].Date == txn.date {
			points[n-1].Value = current
			continue
		}
		points = append(points, models.NetWorthPoint{
			Date:           txn.date,
			Value:          current,
			EpochTimestamp: epochMillis(txn.date),
		})
	}

	// Back to ascending chronological order.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return append(points, models.NetWorthPoint{
		Date:           today,
		Value:          todaysValue,
		EpochTimestamp: epochMillis(today),
	})
}

// epochMillis returns the UTC-midnight epoch millisecond timestamp for a
// "YYYY-MM-DD" date string. An unparseable date yields zero.
func epochMillis(date string) int64 {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0
	}
	return t.UTC().UnixMilli()
}
