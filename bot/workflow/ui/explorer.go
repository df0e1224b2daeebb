package ui

// Explorer links rendered on transaction reports. The bot operates on
// devnet, so every link pins the cluster.

func TxURL(signature string) string {
	return "https://solscan.io/tx/" + signature + "?cluster=devnet"
}

func AccountURL(address string) string {
	return "https://solscan.io/account/" + address + "?cluster=devnet"
}
