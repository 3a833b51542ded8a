package ledger

// Preference keys of one user's ledger.
func TransactionsKey(username string) string { return "transactions:" + username }
func IncomeKey(username string) string       { return "income:" + username }
func ExpenseKey(username string) string      { return "expense:" + username }
func OpeningKey(username string) string      { return "opening:" + username }
func FirstRunKey(username string) string     { return "first_run_done:" + username }
