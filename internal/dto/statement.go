package dto

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Key     string `json:"key"`
}

type StatementResponse struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	SourceFileKey string `json:"source_file_key"`
	Status        string `json:"status"`
	StatementDate string `json:"statement_date"`
	CreatedAt     string `json:"created_at"`
}

type TransactionResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at"`
}

type StatementDetailResponse struct {
	Statement    StatementResponse     `json:"statement"`
	Transactions []TransactionResponse `json:"transactions"`
}

type InsightResponse struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Content       string `json:"content"`
	TransactionID string `json:"transaction_id"`
	Date          string `json:"date"`
	CreatedAt     string `json:"created_at"`
}
