package services

// Services defined in this package:
// - ReportService: Compiles enrollment reports and manages their async jobs
