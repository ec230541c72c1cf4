package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	galleryhttp "clipperstudio/contexts/clipper-studio/clip-gallery-service/transport/http"
	"clipperstudio/contexts/clipper-studio/project-sync-service/domain/entities"
	synchttp "clipperstudio/contexts/clipper-studio/project-sync-service/transport/http"
	"clipperstudio/internal/platform/upstream"
)

var (
	rootCmd = &cobra.Command{
		Use:   "studioctl",
		Short: "A command-line client for the clipper studio session API",
		Long: `studioctl drives the clipper studio session service from the terminal.
It submits videos for clip detection, watches processing progress and manages
the resulting projects.

Examples:
  # Submit a video by URL and watch it process
  studioctl submit --source-url https://example.com/talk.mp4
  studioctl watch --project proj-123

  # Keep a finished project past the retention window
  studioctl save --project proj-123`,
	}

	submitCmd = &cobra.Command{
		Use:   "submit",
		Short: "Create a project and start clip detection",
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceURL, _ := cmd.Flags().GetString("source-url")
			thumbnailPath, _ := cmd.Flags().GetString("thumbnail")

			req := synchttp.CreateProjectRequest{SourceURL: sourceURL}
			if thumbnailPath != "" {
				thumbnail, err := encodeThumbnail(thumbnailPath)
				if err != nil {
					return err
				}
				req.Thumbnail = thumbnail
			}

			var resp synchttp.CreateProjectResponse
			if err := apiClient().DoJSON(cmd.Context(), http.MethodPost, "/studio/projects", req, &resp); err != nil {
				return err
			}

			fmt.Printf("project %s created (status %s)\n", resp.Project.ProjectID, resp.Project.Status)
			if resp.ClipsReady {
				fmt.Println("clips are ready")
			} else if resp.PollingStarted {
				fmt.Println("detection running, use watch to follow progress")
			}
			return nil
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the session's projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp synchttp.ListProjectsResponse
			if err := apiClient().GetJSON(cmd.Context(), "/studio/projects", &resp); err != nil {
				return err
			}
			if len(resp.Items) == 0 {
				fmt.Println("no projects")
				return nil
			}
			for _, item := range resp.Items {
				printProject(item)
			}
			return nil
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Follow a project until processing settles",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, _ := cmd.Flags().GetString("project")
			interval, _ := cmd.Flags().GetDuration("interval")

			client := apiClient()
			for {
				var resp synchttp.GetProjectResponse
				if err := client.GetJSON(cmd.Context(), "/studio/projects/"+projectID, &resp); err != nil {
					return err
				}

				status := entities.ProjectStatus(resp.Project.Status)
				fmt.Printf("%s  %3d%%  %s\n", resp.Project.Status, resp.Project.Progress, resp.Project.ProgressMessage)
				if !status.IsPipelineStage() {
					return nil
				}

				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(interval):
				}
			}
		},
	}

	saveCmd = &cobra.Command{
		Use:   "save",
		Short: "Save a project so retention never removes it",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, _ := cmd.Flags().GetString("project")

			var resp synchttp.SaveProjectResponse
			path := "/studio/projects/" + projectID + "/save"
			if err := apiClient().DoJSON(cmd.Context(), http.MethodPost, path, nil, &resp); err != nil {
				return err
			}
			fmt.Printf("project %s saved at %s\n", resp.Project.ProjectID, resp.Project.SavedAt)
			return nil
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete a project locally and on the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, _ := cmd.Flags().GetString("project")

			var resp synchttp.DeleteProjectResponse
			if err := apiClient().DoJSON(cmd.Context(), http.MethodDelete, "/studio/projects/"+projectID, nil, &resp); err != nil {
				return err
			}
			fmt.Printf("project %s deleted\n", resp.ProjectID)
			return nil
		},
	}

	clipsCmd = &cobra.Command{
		Use:   "clips",
		Short: "Show the detected clips for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, _ := cmd.Flags().GetString("project")

			var resp galleryhttp.ProjectClipsResponse
			if err := apiClient().GetJSON(cmd.Context(), "/gallery/projects/"+projectID+"/clips", &resp); err != nil {
				return err
			}
			if resp.Page.StillProcessing {
				fmt.Printf("project %s is still processing (%d clips promised)\n", projectID, resp.Page.TotalClips)
				return nil
			}
			if len(resp.Page.Clips) == 0 {
				fmt.Println("no clips")
				return nil
			}
			for _, clip := range resp.Page.Clips {
				fmt.Printf("%-20s  %6.1fs-%-6.1fs  score %.2f  %s\n",
					clip.ClipID, clip.StartSeconds, clip.EndSeconds, clip.ViralityScore, clip.Title)
			}
			return nil
		},
	}
)

func apiClient() *upstream.Client {
	addr, _ := rootCmd.PersistentFlags().GetString("addr")
	client, err := upstream.NewClient(upstream.Config{
		BaseURL:   addr,
		UserAgent: "studioctl/1.0",
	})
	if err != nil {
		log.Fatalf("invalid --addr: %v", err)
	}
	return client
}

// encodeThumbnail inlines a local image as a data URL, the same form the
// studio UI stages before upload.
func encodeThumbnail(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read thumbnail: %w", err)
	}
	contentType := http.DetectContentType(raw)
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(raw)), nil
}

func printProject(item synchttp.ProjectDTO) {
	name := item.Filename
	if name == "" {
		name = item.SourceURL
	}
	saved := " "
	if item.IsSaved {
		saved = "*"
	}
	fmt.Printf("%-24s %s %-13s %3d%%  %s\n", item.ProjectID, saved, item.Status, item.Progress, name)
}

func init() {
	rootCmd.PersistentFlags().String("addr", "http://localhost:8080", "Base URL of the studio API")

	submitCmd.Flags().String("source-url", "", "Video URL to submit")
	submitCmd.Flags().String("thumbnail", "", "Optional thumbnail image file")
	submitCmd.MarkFlagRequired("source-url")

	watchCmd.Flags().String("project", "", "Project id to watch")
	watchCmd.Flags().Duration("interval", 5*time.Second, "Poll interval")
	watchCmd.MarkFlagRequired("project")

	saveCmd.Flags().String("project", "", "Project id to save")
	saveCmd.MarkFlagRequired("project")

	deleteCmd.Flags().String("project", "", "Project id to delete")
	deleteCmd.MarkFlagRequired("project")

	clipsCmd.Flags().String("project", "", "Project id to inspect")
	clipsCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clipsCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
