package kv

// Workspace keys. Each key holds a JSON array owned by one module.
const (
	KeyItemMaster     = "itemMasterData"
	KeyIndents        = "indentData"
	KeyPurchaseOrders = "purchaseOrders"
	KeyPurchaseData   = "purchaseData"
	KeyVendorDept     = "vendorDeptData"
	KeyPSIR           = "psirData"
	KeyVSIR           = "vsri-records"
	KeyInHouseIssues  = "inHouseIssueData"
	KeyVendorIssues   = "vendorIssueData"
	KeyStockRecords   = "stock-records"
)

// SyncKeys lists the keys mirrored to the remote document even when absent locally.
var SyncKeys = []string{
	KeyPSIR,
	KeyVSIR,
	KeyInHouseIssues,
	KeyVendorIssues,
	KeyPurchaseData,
	KeyItemMaster,
	KeyVendorDept,
	KeyStockRecords,
	KeyPurchaseOrders,
}
