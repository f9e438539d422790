package errors

var (
	ErrBelowMinimum       = validation("BELOW_MINIMUM", "amount is below the minimum withdrawal")
	ErrStateConflict      = consistency("STATE_CONFLICT", "operation not allowed in the current state")
	ErrAlreadyProcessed   = consistency("ALREADY_PROCESSED", "settlement step already processed")
	ErrReportNotApproved  = consistency("REPORT_NOT_APPROVED", "report has not been approved")
	ErrResultNotApproved  = consistency("RESULT_NOT_APPROVED", "field result has not been uploaded and approved")
	ErrWithdrawalNotFound = notFound("WITHDRAWAL_NOT_FOUND", "withdrawal request not found")
	ErrBookingNotFound    = notFound("BOOKING_NOT_FOUND", "booking not found")
	ErrJobNotFound        = notFound("RETRY_JOB_NOT_FOUND", "retry job not found")
)
