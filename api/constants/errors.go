package constants

// ============================================================================
// SESSION ERRORS
// ============================================================================

const (
	ErrUnauthorized          = "You are not authorized to perform this action"
	ErrImportSessionNotFound = "Import session not found or expired. Please upload the file again"
	ErrImportSessionOwner    = "This import session belongs to another user"
)

// ============================================================================
// VALIDATION ERRORS - Upload / Format detection
// ============================================================================

const (
	ErrFileFieldMissing        = "Missing 'file' field in the upload"
	ErrUnsupportedFileType     = "Unsupported file type. Please upload an xlsx, xls, csv or xml export"
	ErrFormatNotDetected       = "Could not detect the carrier format of this file"
	ErrFileUnreadable          = "The uploaded file could not be read"
	ErrNoDataRows              = "The file does not contain any data rows"
	ErrHeaderRowNotFound       = "Could not locate the header row in the file"
	ErrCarrierNotFound         = "Carrier not found in the system"
	ErrCarrierParserMissing    = "No parser is registered for this carrier"
	ErrFileAlreadyStaged       = "This file is already staged in an open import session"
	ErrBatchWindowOutOfRange   = "Requested batch window is outside the valid row range"
	ErrBatchAlreadyInProgress  = "Another batch for this session is still being processed"
	ErrScratchPayloadCorrupted = "The staged rows for this session could not be loaded"
)

// ============================================================================
// VALIDATION ERRORS - Row level (appended to ParsedRow.Errors, never thrown)
// ============================================================================

const (
	RowErrPolicyNumberMissing = "policy number is missing"
	RowErrDateMissing         = "neither issue date nor start date could be parsed"
	RowErrPremiumMissing      = "gross and net premium are both missing or zero"
	RowErrRowUnparseable      = "row could not be parsed: %s"
)

// ============================================================================
// VALIDATION ERRORS - Customers
// ============================================================================

const (
	ErrNoCustomers          = "No customers found for your agency"
	ErrCustomerNotFound     = "Customer not found in the system"
	ErrCustomerCreateFailed = "Failed to create customer records"
)

// ============================================================================
// VALIDATION ERRORS - Reference data
// ============================================================================

const (
	ErrNoCarriers         = "No active carriers found in the system"
	ErrNoBranches         = "No branches found in the system"
	ErrNoCommissionRate   = "No commission rate is defined for this carrier and branch"
	ErrBranchNotFound     = "Branch not found in the system"
	ErrCarrierNotActive   = "Carrier is not active in the system"
	ErrCarrierIDRequired  = "Carrier id is required"
	ErrBranchCodeRequired = "Branch code is required"
)

// ============================================================================
// STORAGE ERRORS
// ============================================================================

const (
	ErrPoolBulkWriteFailed = "Failed to write imported rows to the policy pool"
	ErrScratchWriteFailed  = "Failed to stage parsed rows for this session"
)
