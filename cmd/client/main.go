// Command client is a small CLI for the filedrop HTTP API.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	baseURL := getEnv("SERVER_URL", "http://localhost:5001")
	client := &http.Client{Timeout: 60 * time.Second}

	switch command := os.Args[1]; command {
	case "upload":
		if len(os.Args) < 3 {
			log.Fatal("Usage: client upload <filepath>")
		}
		uploadFile(client, baseURL, os.Args[2])

	case "download":
		if len(os.Args) < 4 {
			log.Fatal("Usage: client download <file_id> <output_path>")
		}
		downloadFile(client, baseURL, os.Args[2], os.Args[3])

	case "list":
		listFiles(client, baseURL)

	case "health":
		checkHealth(client, baseURL)

	default:
		printUsage()
		os.Exit(1)
	}
}

func uploadFile(client *http.Client, baseURL, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/upload", pr)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Upload failed (%s): %s", resp.Status, body)
	}

	var result struct {
		FileID   string `json:"file_id"`
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to parse response: %v", err)
	}

	fmt.Printf("Uploaded %s (%d bytes)\n", result.Filename, result.Size)
	fmt.Printf("File ID: %s\n", result.FileID)
}

func downloadFile(client *http.Client, baseURL, fileID, outputPath string) {
	resp, err := client.Get(baseURL + "/api/download/" + fileID)
	if err != nil {
		log.Fatalf("Download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Download failed (%s): %s", resp.Status, body)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}

	fmt.Printf("Downloaded %d bytes to %s\n", written, outputPath)
}

func listFiles(client *http.Client, baseURL string) {
	resp, err := client.Get(baseURL + "/api/files")
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("List failed (%s): %s", resp.Status, body)
	}

	var files []struct {
		FileID     string    `json:"file_id"`
		Filename   string    `json:"filename"`
		UploadedAt time.Time `json:"upload_date"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		log.Fatalf("Failed to parse response: %v", err)
	}

	if len(files) == 0 {
		fmt.Println("No files uploaded yet")
		return
	}

	for _, f := range files {
		fmt.Printf("%s  %s  %s\n", f.FileID, f.UploadedAt.Format(time.RFC3339), f.Filename)
	}
}

func checkHealth(client *http.Client, baseURL string) {
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Println(string(body))
}

func printUsage() {
	fmt.Println("Usage: client <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  upload <filepath>              Upload a file")
	fmt.Println("  download <file_id> <output>    Download a file by id")
	fmt.Println("  list                           List uploaded files")
	fmt.Println("  health                         Check service health")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
