package assets

// ReportName is the name of the built-in report template and style.
const ReportName = "report"
