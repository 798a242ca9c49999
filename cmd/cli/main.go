package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "cluster":
		handleCluster(args)
	case "admin":
		handleAdmin(args)
	case "agrodata":
		showAgrodata()
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: agroregistry auth <login|logout|who>")
		return
	}

	switch args[0] {
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleCluster(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: agroregistry cluster <register|report|get-report>")
		return
	}

	switch args[0] {
	case "register":
		registerCluster(args[1:])
	case "report":
		submitReport(args[1:])
	case "get-report":
		getReport(args[1:])
	default:
		fmt.Printf("unknown cluster command: %s\n", args[0])
	}
}

func handleAdmin(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: agroregistry admin <pending|active|history|approve|reject|block|unblock|delete>")
		return
	}

	switch args[0] {
	case "pending":
		listClusters("/admin/pending-clusters")
	case "active":
		listClusters("/admin/active-clusters")
	case "history":
		clusterHistory(args[1:])
	case "approve":
		decide("approve", "/admin/cluster-approve", args[1:])
	case "reject":
		decide("reject", "/admin/cluster-reject", args[1:])
	case "block":
		setBlocked(args[1:], true)
	case "unblock":
		setBlocked(args[1:], false)
	case "delete":
		deleteCluster(args[1:])
	default:
		fmt.Printf("unknown admin command: %s\n", args[0])
	}
}

// Auth commands
func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Println("Error: username and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"username": *username, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s (%v)\n", *username, result["role"])
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result["error"])
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	preview := token
	if len(preview) > 20 {
		preview = preview[:20]
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", preview)
}

// Cluster commands
func registerCluster(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	name := fs.String("name", "", "cluster name")
	district := fs.String("district", "", "district code")
	clusterType := fs.String("type", "", "cluster type")
	leader := fs.String("leader", "", "leader name")
	phone := fs.String("phone", "", "leader phone")
	fs.Parse(args)

	if *username == "" || *password == "" || *name == "" || *district == "" {
		fmt.Println("Error: username, password, name, and district are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"username":      *username,
		"password":      *password,
		"cluster_name":  *name,
		"district_code": *district,
		"cluster_type":  *clusterType,
		"leader_name":   *leader,
		"leader_phone":  *phone,
	}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register-cluster", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Registration submitted, cluster id %v. An admin must approve it before login.\n", result["cluster_id"])
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result["error"])
	}
}

func submitReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	year := fs.Int("year", 0, "report year")
	production := fs.Float64("production", 0, "production volume")
	export := fs.Float64("export", 0, "export volume")
	employment := fs.Int("employment", 0, "employment count")
	profitability := fs.Float64("profitability", 0, "profitability percent")
	fs.Parse(args)

	if *year <= 0 {
		fmt.Println("Error: -year is required")
		return
	}

	payload := map[string]interface{}{
		"year":          *year,
		"production":    *production,
		"export":        *export,
		"employment":    *employment,
		"profitability": *profitability,
	}
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/cluster-report", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Report for %d saved\n", *year)
	} else {
		fmt.Printf("✗ Report failed: %v\n", result["error"])
	}
}

func getReport(args []string) {
	fs := flag.NewFlagSet("get-report", flag.ExitOnError)
	year := fs.Int("year", 0, "report year")
	fs.Parse(args)

	if *year <= 0 {
		fmt.Println("Error: -year is required")
		return
	}

	req, _ := http.NewRequest("GET", fmt.Sprintf("%s/cluster-report?year=%d", getAPIURL(), *year), nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != 200 {
		fmt.Printf("✗ Lookup failed: %v\n", result["error"])
		return
	}
	if result == nil {
		fmt.Printf("No report submitted for %d yet\n", *year)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tPRODUCTION\tEXPORT\tEMPLOYMENT\tPROFITABILITY")
	fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
		result["year"], result["production"], result["export"], result["employment"], result["profitability"])
	w.Flush()
}

func showAgrodata() {
	resp, err := http.Get(getAPIURL() + "/agrodata")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var view map[string]map[string][]map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&view)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tDISTRICT\tCLUSTER\tPRODUCTION\tEXPORT")
	for year, districts := range view {
		for district, clusters := range districts {
			for _, c := range clusters {
				fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%v\n", year, district, c["name"], c["production"], c["export"])
			}
		}
	}
	w.Flush()
}

// Admin commands
func listClusters(path string) {
	req, _ := http.NewRequest("GET", getAPIURL()+path, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		fmt.Printf("✗ Listing failed: %v\n", result["error"])
		return
	}

	var clusters []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&clusters)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDISTRICT\tSTATUS\tUSERNAME")
	for _, c := range clusters {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", c["id"], c["name"], c["district_code"], c["status"], c["username"])
	}
	w.Flush()
}

func clusterHistory(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: agroregistry admin history <cluster-id>")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/admin/cluster-history/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != 200 {
		fmt.Printf("✗ History failed: %v\n", result["error"])
		return
	}

	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))
}

func decide(verb, path string, args []string) {
	fs := flag.NewFlagSet(verb, flag.ExitOnError)
	id := fs.Int64("id", 0, "cluster id")
	comment := fs.String("comment", "", "decision comment")
	fs.Parse(args)

	if *id <= 0 {
		fmt.Println("Error: -id is required")
		return
	}

	payload := map[string]interface{}{"cluster_id": *id}
	if *comment != "" {
		payload["comment"] = *comment
	}
	postDecision(verb, path, payload)
}

func setBlocked(args []string, blocked bool) {
	fs := flag.NewFlagSet("block", flag.ExitOnError)
	id := fs.Int64("id", 0, "cluster id")
	fs.Parse(args)

	if *id <= 0 {
		fmt.Println("Error: -id is required")
		return
	}

	verb := "unblock"
	if blocked {
		verb = "block"
	}
	postDecision(verb, "/admin/cluster-block", map[string]interface{}{"cluster_id": *id, "blocked": blocked})
}

func postDecision(verb, path string, payload map[string]interface{}) {
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Cluster %v: %v\n", result["cluster_id"], result["status"])
	} else {
		fmt.Printf("✗ %s failed: %v\n", verb, result["error"])
	}
}

func deleteCluster(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: agroregistry admin delete <cluster-id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/admin/cluster/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Cluster %s deleted\n", args[0])
	} else {
		fmt.Printf("✗ Delete failed: %v\n", result["error"])
	}
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("AGROREGISTRY_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.agroregistry/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.agroregistry", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`AgroRegistry CLI

Usage:
  agroregistry <command> [options]

Commands:
  auth       Authentication (login, logout, who)
  cluster    Cluster operations (register, report, get-report)
  admin      Admin operations (pending, active, history, approve, reject, block, unblock, delete)
  agrodata   Show the public regional dashboard data
  help       Show this help message

Environment Variables:
  AGROREGISTRY_API    API endpoint (default: http://localhost:8080/api)

Examples:
  agroregistry cluster register -username greenvalley -password pass -name "Green Valley" -district qarshi
  agroregistry auth login -username admin -password admin
  agroregistry admin pending
  agroregistry admin approve -id 3 -comment "documents verified"
  agroregistry cluster report -year 2025 -production 120.5 -export 30 -employment 45 -profitability 12.3
`)
}
