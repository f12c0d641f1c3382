package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and control jobs on a running momo-scheduler instance",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List defined jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return apiGetAndPrint("/api/v1/jobs")
	},
}

var jobsTriggerCmd = &cobra.Command{
	Use:   "trigger <name>",
	Short: "Trigger one attempt of a job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return apiPostAndPrint(fmt.Sprintf("/api/v1/jobs/%s/trigger", args[0]))
	},
}

func init() {
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsTriggerCmd)
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func apiGetAndPrint(path string) error {
	resp, err := httpClient.Get(apiAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func apiPostAndPrint(path string) error {
	resp, err := httpClient.Post(apiAddr+path, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty interface{}
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return nil
	}

	encoded, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
