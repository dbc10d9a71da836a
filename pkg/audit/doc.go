// Package audit is the append-only ledger of authorization decisions and
// administrative changes.
//
// Every entry carries a category, the acting user, the subject of the
// change, a structured context snapshot, a success flag and a risk score
// between 0 and 100. Entries are never updated; the only deletion is the
// age based Purge used for retention.
//
// # Usage
//
//	ledger := audit.NewLedger(audit.NewSQLStore(db),
//		audit.WithSealer(sealer),
//		audit.WithSyslog(audit.NewLogger(os.Stdout)),
//	)
//	entry, err := ledger.Record(ctx, audit.NewAdminEntry(audit.CategoryRoleAssigned, "admin-1", true))
//
// A failed write is kept in memory and retried by Flush or by the Run
// loop; Pending reports how far behind the ledger is.
package audit
