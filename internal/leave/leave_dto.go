package leave

type ApplyLeaveRequest struct {
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Reason      string `json:"reason"`
	IsEmergency bool   `json:"is_emergency"`
}

type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required,oneof=APPROVED DECLINED"`
	Comment string `json:"comment"`
}

type ListLeavesFilterRequest struct {
	Section string `form:"section"`
	Date    string `form:"date"`
}

type LeaveResponse struct {
	ID            string  `json:"id"`
	StudentID     string  `json:"student_id"`
	StudentName   string  `json:"student_name,omitempty"`
	RollNumber    string  `json:"roll_number,omitempty"`
	StudentClass  string  `json:"student_class,omitempty"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Reason        string  `json:"reason"`
	IsEmergency   bool    `json:"is_emergency"`
	Status        string  `json:"status"`
	ReviewerID    *string `json:"reviewer_id,omitempty"`
	ReviewComment *string `json:"review_comment,omitempty"`
	AdminApproved *bool   `json:"admin_approved,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// LeaveStatsResponse is the per-student dashboard view. Explicit struct,
// one field per computed figure.
type LeaveStatsResponse struct {
	UsedThisMonth        int64    `json:"leaves_used_this_month"`
	RemainingThisMonth   int64    `json:"leaves_remaining_this_month"`
	TotalApproved        int64    `json:"total_approved"`
	TotalPending         int64    `json:"total_pending"`
	AttendancePercentage *float64 `json:"attendance_percentage,omitempty"`
}

// StudentSummaryResponse aggregates one student's leave counts for the
// coordinator's class overview.
type StudentSummaryResponse struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	RollNumber  string `json:"roll_number"`
	Approved    int64  `json:"approved"`
	Pending     int64  `json:"pending"`
	Declined    int64  `json:"declined"`
}
