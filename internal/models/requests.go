package models

type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SyncRequest struct {
	Username string `json:"username"`
}

type PlaceBetRequest struct {
	Username string  `json:"username" binding:"required"`
	Stake    float64 `json:"stake"`
	Ticket   Ticket  `json:"ticket"`
}

type BalanceRequest struct {
	Username string  `json:"username" binding:"required"`
	Amount   float64 `json:"amount"`
	Type     string  `json:"type"` // "add" credits, anything else debits
}

type SettleRequest struct {
	Username string `json:"username" binding:"required"`
	BetIndex *int   `json:"betIndex"`
	TicketID string `json:"ticketId"`
	Result   string `json:"result" binding:"required"`
}

type SettleOutcome struct {
	TicketID      string       `json:"ticketId"`
	Status        TicketStatus `json:"status"`
	Credited      int64        `json:"credited"`
	CreditSkipped bool         `json:"creditSkipped"`
	Balance       float64      `json:"balance"`
}
