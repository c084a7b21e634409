package i18n

// translations is the read-only label table, keyed by label then language
var translations = map[string]map[Lang]string{
	// Page title and headers
	"title":        {English: "Production KPI Dashboard", Japanese: "生産KPIダッシュボード"},
	"page_title":   {English: "Production KPI Dashboard", Japanese: "生産KPIダッシュボード"},
	"data_filters": {English: "Data & Filters", Japanese: "データ・フィルター"},

	// File upload
	"upload_data": {English: "Upload production .xlsx file", Japanese: "生産 .xlsx ファイルをアップロード"},
	"use_sample":  {English: "Use sample data", Japanese: "サンプルデータを使用"},
	"use_sheets":  {English: "Load from Google Sheets", Japanese: "Googleスプレッドシートから読み込む"},

	// Error messages
	"error_load_file": {
		English:  "Failed to load uploaded file: %s",
		Japanese: "アップロードされたファイルの読み込みに失敗しました: %s",
	},
	"error_sample_data": {
		English:  "Sample data not found. Run `sampledata` to create it.",
		Japanese: "サンプルデータが見つかりません。`sampledata` を実行して作成してください。",
	},
	"error_no_data": {
		English:  "Please upload a valid .xlsx or create sample data.",
		Japanese: "有効な .xlsx をアップロードするか、サンプルデータを作成してください。",
	},

	// Filter labels
	"date_range": {English: "Date range", Japanese: "日付範囲"},
	"machine":    {English: "Machine", Japanese: "機械"},
	"shift":      {English: "Shift", Japanese: "シフト"},
	"all_option": {English: "All", Japanese: "すべて"},

	// KPI card labels
	"total_output":        {English: "Total Output", Japanese: "総生産量"},
	"avg_defect_rate":     {English: "Avg Defect Rate", Japanese: "平均不良率"},
	"machine_utilization": {English: "Machine Utilization", Japanese: "設備稼働率"},
	"efficiency_score":    {English: "Efficiency Score", Japanese: "効率スコア"},

	// Charts
	"charts":             {English: "Charts", Japanese: "グラフ"},
	"daily_output_trend": {English: "Daily Output Trend", Japanese: "日別生産量トレンド"},
	"output_by_machine":  {English: "Output by Machine", Japanese: "機械別生産量"},
	"defects_trend":      {English: "Defects Trend", Japanese: "不良トレンド"},

	// Chart axes
	"date":    {English: "Date", Japanese: "日付"},
	"output":  {English: "Output", Japanese: "生産量"},
	"defects": {English: "Defects", Japanese: "不良"},

	// Data table and export
	"filtered_data":     {English: "Filtered Data", Japanese: "フィルター済みデータ"},
	"download_filtered": {English: "Download filtered data as Excel", Japanese: "フィルター済みデータをExcelでダウンロード"},
	"download_excel":    {English: "Download Excel", Japanese: "Excelをダウンロード"},
	"filtered_file":     {English: "filtered_production_data.xlsx", Japanese: "filtered_production_data.xlsx"},

	// KPI summary export
	"export_kpi_summary": {English: "Export KPI Summary", Japanese: "KPIサマリーをエクスポート"},
	"export_button":      {English: "Export KPI to Excel", Japanese: "KPIをExcelにエクスポート"},
	"download_summary":   {English: "Download KPI Summary", Japanese: "KPIサマリーをダウンロード"},
	"summary_file":       {English: "kpi_summary.xlsx", Japanese: "kpi_summary.xlsx"},

	// Footer
	"notes": {
		English:  "**Notes:** This app accepts .xlsx uploads and can use the generator to build a sample dataset.",
		Japanese: "**注:** このアプリケーションは .xlsx ファイルをアップロード可能で、ジェネレータを使用してサンプルデータセットを構築できます。",
	},

	// Language selector
	"language": {English: "Language", Japanese: "言語"},
}
