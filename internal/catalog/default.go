package catalog

const flagBase = "https://flagcdn.com/w320/"

var defaultEntries = []ServerEntry{
	{Name: "Sweden", ConfigID: "Sweden1.ovpn", FlagURL: flagBase + "se.png", Address: "132.225.2.234"},
	{Name: "Turkey", ConfigID: "Turkey1.ovpn", FlagURL: flagBase + "tr.png", Address: "192.168.2.123"},
	{Name: "China", ConfigID: "HongKong1.ovpn", FlagURL: flagBase + "cn.png", Address: "119.28.45.12"},
	{Name: "South Africa", ConfigID: "Africa1.ovpn", FlagURL: flagBase + "za.png", Address: "119.28.45.13"},
	{Name: "Poland", ConfigID: "Poland1.ovpn", FlagURL: flagBase + "pl.png", Address: "51.83.142.67"},
	{Name: "United States", ConfigID: "USA1.ovpn", FlagURL: flagBase + "us.png", Address: "34.201.45.76"},
	{Name: "Canada", ConfigID: "Canada1.ovpn", FlagURL: flagBase + "ca.png", Address: "142.250.72.14"},
	{Name: "Brazil", ConfigID: "Brazil1.ovpn", FlagURL: flagBase + "br.png", Address: "177.12.45.32"},
	{Name: "Australia", ConfigID: "Australia1.ovpn", FlagURL: flagBase + "au.png", Address: "13.54.12.23"},
}

// Default returns the built-in server catalog.
func Default() *Catalog {
	c, _ := New(defaultEntries)
	return c
}
